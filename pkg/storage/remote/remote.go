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

package remote

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/canfar/pkg/node"
	"github.com/walteh/canfar/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

const maxLinkHops = 40

// 🎯 NodeKind is the kind of a node in the store
type NodeKind int

const (
	DataNode NodeKind = iota
	ContainerNode
	LinkNode
)

func (k NodeKind) String() string {
	switch k {
	case ContainerNode:
		return "ContainerNode"
	case LinkNode:
		return "LinkNode"
	default:
		return "DataNode"
	}
}

// 📦 Node is the metadata of a single remote node
type Node struct {
	URI      string
	Kind     NodeKind
	Target   string   // link target, LinkNode only
	Children []string // child names, ContainerNode only and only when requested
}

// DownloadOptions selects what part of a data node is streamed
type DownloadOptions struct {
	Cutout string
	Head   bool
}

// 🔌 NodeClient is the node store API the adapter is built on
type NodeClient interface {
	// Scheme is the URI scheme this client serves (e.g. "vos")
	Scheme() string
	// GetNode fetches node metadata; limit bounds the number of children returned
	GetNode(ctx context.Context, uri string, limit int) (*Node, error)
	// List returns child names; force bypasses any cache
	List(ctx context.Context, uri string, force bool) ([]string, error)
	Mkdir(ctx context.Context, uri string) error
	Glob(ctx context.Context, pattern string) ([]string, error)
	Download(ctx context.Context, uri string, opts DownloadOptions) (io.ReadCloser, error)
	Upload(ctx context.Context, uri string) (io.WriteCloser, error)
	// Delete removes a node; a container goes with everything below it
	Delete(ctx context.Context, uri string) error
	// Move renames src to dst, or moves it inside dst when dst is a container
	Move(ctx context.Context, src, dst string) error
	// Link creates a link node at uri pointing at target
	Link(ctx context.Context, uri, target string) error
}

var (
	_ storage.Adapter     = (*Adapter)(nil)
	_ storage.NodeManager = (*Adapter)(nil)
)

// ☁️ Adapter serves paths of one remote node store scheme
type Adapter struct {
	client NodeClient
}

// 🏭 New creates a remote adapter over client
func New(client NodeClient) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Schemes() []string { return []string{a.client.Scheme()} }

// 🔍 Exists reports false for nodes that are missing or that the caller may not see
func (a *Adapter) Exists(ctx context.Context, p node.Path, mode storage.AccessMode) (bool, error) {
	zerolog.Ctx(ctx).Debug().Str("path", p.String()).Stringer("mode", mode).Msg("checking access")

	n, err := a.client.GetNode(ctx, p.Location(), 0)
	if err != nil {
		if storage.IsDenied(err) {
			return false, nil
		}
		return false, errors.Errorf("checking %s: %w", p, err)
	}
	return n != nil, nil
}

// 🔍 IsDir follows link nodes to their final target
func (a *Adapter) IsDir(ctx context.Context, p node.Path) (bool, error) {
	n, err := a.resolve(ctx, p.Location())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, errors.Errorf("checking %s: %w", p, err)
	}
	return n.Kind == ContainerNode, nil
}

func (a *Adapter) IsSymlink(ctx context.Context, p node.Path) (bool, error) {
	n, err := a.client.GetNode(ctx, p.Location(), 0)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, errors.Errorf("checking %s: %w", p, err)
	}
	return n.Kind == LinkNode, nil
}

func (a *Adapter) List(ctx context.Context, p node.Path) ([]string, error) {
	names, err := a.client.List(ctx, p.Location(), true)
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", p, err)
	}
	return names, nil
}

func (a *Adapter) MakeDir(ctx context.Context, p node.Path) error {
	if err := a.client.Mkdir(ctx, p.Location()); err != nil {
		return errors.Errorf("making container %s: %w", p, err)
	}
	return nil
}

func (a *Adapter) Expand(ctx context.Context, pattern node.Path) ([]node.Path, error) {
	matches, err := a.client.Glob(ctx, pattern.Location())
	if err != nil {
		return nil, errors.Errorf("expanding %s: %w", pattern, err)
	}

	paths := make([]node.Path, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, a.path(m))
	}
	return paths, nil
}

func (a *Adapter) ResolveLink(ctx context.Context, p node.Path) (node.Path, error) {
	n, err := a.resolve(ctx, p.Location())
	if err != nil {
		return node.Path{}, errors.Errorf("resolving %s: %w", p, err)
	}
	return a.path(n.URI), nil
}

// 📥 Open streams the data node, passing any cutout through to the service
func (a *Adapter) Open(ctx context.Context, p node.Path, head bool) (io.ReadCloser, error) {
	rc, err := a.client.Download(ctx, p.Location(), DownloadOptions{
		Cutout: p.Cutout().Raw,
		Head:   head,
	})
	if err != nil {
		return nil, errors.Errorf("downloading %s: %w", p, err)
	}
	return rc, nil
}

// 📤 Create opens an upload; the upload's outcome is reported by Close
func (a *Adapter) Create(ctx context.Context, p node.Path) (io.WriteCloser, error) {
	wc, err := a.client.Upload(ctx, p.Location())
	if err != nil {
		return nil, errors.Errorf("uploading %s: %w", p, err)
	}
	return wc, nil
}

func (a *Adapter) Delete(ctx context.Context, p node.Path) error {
	zerolog.Ctx(ctx).Debug().Str("path", p.String()).Msg("deleting node")

	if err := a.client.Delete(ctx, p.Location()); err != nil {
		return errors.Errorf("deleting %s: %w", p, err)
	}
	return nil
}

func (a *Adapter) Move(ctx context.Context, src, dst node.Path) error {
	if src.Scheme() != dst.Scheme() {
		return errors.Errorf("%w: move between services not supported (%s -> %s)", storage.ErrInvalidReference, src, dst)
	}
	if err := a.client.Move(ctx, src.Location(), dst.Location()); err != nil {
		return errors.Errorf("moving %s -> %s: %w", src, dst, err)
	}
	return nil
}

// 🔗 Link creates a link node at p. target may be a node of any scheme or an
// external URL and is not checked.
func (a *Adapter) Link(ctx context.Context, p node.Path, target string) error {
	if err := a.client.Link(ctx, p.Location(), target); err != nil {
		return errors.Errorf("linking %s -> %s: %w", p, target, err)
	}
	return nil
}

func (a *Adapter) resolve(ctx context.Context, uri string) (*Node, error) {
	current := uri
	for range maxLinkHops {
		n, err := a.client.GetNode(ctx, current, 0)
		if err != nil {
			return nil, err
		}
		if n.Kind != LinkNode {
			return n, nil
		}
		current = n.Target
	}
	return nil, errors.Errorf("%w: too many link hops from %s", storage.ErrInvalidReference, uri)
}

func (a *Adapter) path(uri string) node.Path {
	bare, _ := strings.CutPrefix(uri, a.client.Scheme()+":")
	return node.Remote(a.client.Scheme(), bare)
}
