// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vospace is a thin HTTP client for a VOSpace node service.
//
// Node metadata lives under {endpoint}/nodes/{path} and file content under
// {endpoint}/files/{path}. URIs are accepted and returned in the short
// "scheme:/path" form.
package vospace

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/canfar/pkg/node"
	"github.com/walteh/canfar/pkg/storage"
	"github.com/walteh/canfar/pkg/storage/remote"
	"gitlab.com/tozd/go/errors"
)

var _ remote.NodeClient = (*Client)(nil)

// 🛰️ Client talks to one node service for one URI scheme
type Client struct {
	scheme   string
	endpoint *url.URL
	http     *http.Client
}

// 🏭 New creates a client for scheme against endpoint using httpClient
func New(scheme, endpoint string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil {
		return nil, errors.Errorf("parsing endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("endpoint %q must be an absolute URL", endpoint)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{scheme: scheme, endpoint: u, http: httpClient}, nil
}

func (c *Client) Scheme() string { return c.scheme }

// 🔍 GetNode fetches node metadata. A negative limit returns every child,
// zero returns none.
func (c *Client) GetNode(ctx context.Context, uri string, limit int) (*remote.Node, error) {
	q := url.Values{}
	if limit >= 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.getNode(ctx, uri, q, nil)
}

func (c *Client) getNode(ctx context.Context, uri string, q url.Values, header http.Header) (*remote.Node, error) {
	nodePath, err := c.nodePath(uri)
	if err != nil {
		return nil, err
	}

	req, err := c.request(ctx, http.MethodGet, "nodes", nodePath, q, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, errors.Errorf("getting node %s: %w", uri, err)
	}
	defer resp.Body.Close()

	n, err := decodeNode(resp.Body, c.scheme)
	if err != nil {
		return nil, errors.Errorf("decoding node %s: %w", uri, err)
	}
	return n, nil
}

// 📂 List returns the child names of a container, following a link node to
// its target. force asks intermediaries not to serve a cached listing.
func (c *Client) List(ctx context.Context, uri string, force bool) ([]string, error) {
	header := http.Header{}
	if force {
		header.Set("Cache-Control", "no-cache")
	}

	names, isContainer, err := c.children(ctx, uri, header)
	if err != nil {
		return nil, err
	}
	if !isContainer {
		return nil, errors.Errorf("%s is not a container", uri)
	}
	return names, nil
}

func (c *Client) children(ctx context.Context, uri string, header http.Header) ([]string, bool, error) {
	n, err := c.getNode(ctx, uri, url.Values{}, header)
	if err != nil {
		return nil, false, err
	}
	if n.Kind == remote.LinkNode {
		n, err = c.getNode(ctx, n.Target, url.Values{}, header)
		if err != nil {
			return nil, false, err
		}
	}
	return n.Children, n.Kind == remote.ContainerNode, nil
}

// 📁 Mkdir creates a single container node
func (c *Client) Mkdir(ctx context.Context, uri string) error {
	nodePath, err := c.nodePath(uri)
	if err != nil {
		return err
	}

	body, err := encodeContainer(c.ivoaURI(nodePath))
	if err != nil {
		return errors.Errorf("encoding container %s: %w", uri, err)
	}

	req, err := c.request(ctx, http.MethodPut, "nodes", nodePath, nil, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := c.do(req)
	if err != nil {
		return errors.Errorf("creating container %s: %w", uri, err)
	}
	resp.Body.Close()
	return nil
}

// 🗑️ Delete removes a node; the service removes a container's content with it
func (c *Client) Delete(ctx context.Context, uri string) error {
	nodePath, err := c.nodePath(uri)
	if err != nil {
		return err
	}
	if nodePath == "/" {
		return errors.Errorf("%w: cannot delete the root container", storage.ErrInvalidReference)
	}

	req, err := c.request(ctx, http.MethodDelete, "nodes", nodePath, nil, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return errors.Errorf("deleting %s: %w", uri, err)
	}
	resp.Body.Close()
	return nil
}

// 🚚 Move runs a synchronous transfer job that moves src to dst. The service
// moves src inside dst when dst is a container.
func (c *Client) Move(ctx context.Context, src, dst string) error {
	srcPath, err := c.nodePath(src)
	if err != nil {
		return err
	}
	dstPath, err := c.nodePath(dst)
	if err != nil {
		return err
	}

	body, err := encodeMove(c.ivoaURI(srcPath), c.ivoaURI(dstPath))
	if err != nil {
		return errors.Errorf("encoding move %s -> %s: %w", src, dst, err)
	}

	req, err := c.request(ctx, http.MethodPost, "synctrans", "", nil, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := c.do(req)
	if err != nil {
		return errors.Errorf("moving %s -> %s: %w", src, dst, err)
	}
	resp.Body.Close()
	return nil
}

// 🔗 Link creates a link node. A target in this client's short form is
// expanded to a full node URI; anything else is stored as given.
func (c *Client) Link(ctx context.Context, uri, target string) error {
	nodePath, err := c.nodePath(uri)
	if err != nil {
		return err
	}

	if rest, ok := strings.CutPrefix(target, c.scheme+":"); ok && !strings.HasPrefix(rest, "//") {
		target = c.ivoaURI(path.Clean("/" + rest))
	}

	body, err := encodeLink(c.ivoaURI(nodePath), target)
	if err != nil {
		return errors.Errorf("encoding link %s: %w", uri, err)
	}

	req, err := c.request(ctx, http.MethodPut, "nodes", nodePath, nil, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := c.do(req)
	if err != nil {
		return errors.Errorf("creating link %s: %w", uri, err)
	}
	resp.Body.Close()
	return nil
}

// 📥 Download streams a data node, or only its header when opts.Head is set
func (c *Client) Download(ctx context.Context, uri string, opts remote.DownloadOptions) (io.ReadCloser, error) {
	nodePath, err := c.nodePath(uri)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	if opts.Head {
		q.Set("view", "header")
	}
	if opts.Cutout != "" {
		if err := addCutout(q, opts.Cutout); err != nil {
			return nil, errors.Errorf("downloading %s: %w", uri, err)
		}
	}

	req, err := c.request(ctx, http.MethodGet, "files", nodePath, q, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, errors.Errorf("downloading %s: %w", uri, err)
	}
	return resp.Body, nil
}

// 📤 Upload streams data into a data node. The request runs while the caller
// writes; Close waits for the service's answer and returns it.
func (c *Client) Upload(ctx context.Context, uri string) (io.WriteCloser, error) {
	nodePath, err := c.nodePath(uri)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	req, err := c.request(ctx, http.MethodPut, "files", nodePath, nil, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	u := &upload{pw: pw, done: make(chan error, 1)}
	go func() {
		resp, err := c.do(req)
		if err != nil {
			pr.CloseWithError(err)
			u.done <- errors.Errorf("uploading %s: %w", uri, err)
			return
		}
		resp.Body.Close()
		u.done <- nil
	}()

	zerolog.Ctx(ctx).Debug().Str("uri", uri).Msg("upload started")
	return u, nil
}

type upload struct {
	pw   *io.PipeWriter
	done chan error
	once sync.Once
	err  error
}

// Write surfaces the service's answer when it stops reading early
func (u *upload) Write(p []byte) (int, error) {
	n, err := u.pw.Write(p)
	if err != nil {
		if werr := u.wait(); werr != nil {
			return n, werr
		}
	}
	return n, err
}

func (u *upload) Close() error {
	if err := u.pw.Close(); err != nil {
		return err
	}
	return u.wait()
}

func (u *upload) wait() error {
	u.once.Do(func() { u.err = <-u.done })
	return u.err
}

func (c *Client) request(ctx context.Context, method, service, nodePath string, q url.Values, body io.Reader) (*http.Request, error) {
	u := *c.endpoint
	u.Path = path.Join("/", u.Path, service, nodePath)
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}
	return req, nil
}

// do sends req and turns any non-2xx answer into a storage error kind
func (c *Client) do(req *http.Request) (*http.Response, error) {
	zerolog.Ctx(req.Context()).Trace().Str("method", req.Method).Str("url", req.URL.String()).Msg("vospace request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, statusError(resp)
}

// nodePath turns "scheme:/a/b" into "/a/b"
func (c *Client) nodePath(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, c.scheme+":")
	if !ok {
		return "", errors.Errorf("%w: %q is not a %s: URI", storage.ErrInvalidReference, uri, c.scheme)
	}
	if strings.ContainsAny(rest, "\x00") {
		return "", errors.Errorf("%w: %q", storage.ErrInvalidReference, uri)
	}
	return path.Clean("/" + rest), nil
}

func (c *Client) shortURI(nodePath string) string {
	return c.scheme + ":" + nodePath
}

func (c *Client) ivoaURI(nodePath string) string {
	return fmt.Sprintf("%s://%s%s", c.scheme, c.endpoint.Host, nodePath)
}

// addCutout maps a cutout token onto the service's query parameters
func addCutout(q url.Values, raw string) error {
	_, cut := node.ParseSource("x" + raw)
	switch cut.Kind {
	case node.CutoutPixel:
		q.Set("cutout", cut.Raw)
	case node.CutoutSpatial:
		q.Set("CIRCLE", fmt.Sprintf("%g %g %g", cut.RA, cut.Dec, cut.Radius))
	default:
		return errors.Errorf("%w: unrecognized cutout %q", storage.ErrInvalidReference, raw)
	}
	return nil
}
