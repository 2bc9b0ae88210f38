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

// Package images lists the container images offered by the science platform.
package images

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🖼️ Image is one catalog entry
type Image struct {
	ID     string   `json:"id"`              // identifier including the registry host
	Types  []string `json:"types,omitempty"` // kinds, e.g. notebook, headless
	Digest string   `json:"digest"`
}

// 🎯 Client reads the image catalog
type Client struct {
	endpoint string
	http     *http.Client
}

// 🏭 New creates a client for the catalog at endpoint
func New(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// 🔍 Details returns the full catalog entries, restricted to kind when set
func (c *Client) Details(ctx context.Context, kind string) ([]Image, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, errors.Errorf("parsing endpoint: %w", err)
	}
	if kind != "" {
		q := u.Query()
		q.Set("type", kind)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	zerolog.Ctx(ctx).Debug().Str("url", u.String()).Msg("fetching images")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Errorf("fetching images: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, errors.Errorf("unexpected status code %d: %s", resp.StatusCode, body)
	}

	var out []Image
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Errorf("decoding images: %w", err)
	}
	return out, nil
}

// 📋 Fetch returns only the image identifiers
func (c *Client) Fetch(ctx context.Context, kind string) ([]string, error) {
	imgs, err := c.Details(ctx, kind)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(imgs))
	for _, img := range imgs {
		ids = append(ids, img.ID)
	}
	return ids, nil
}

// 🖨️ RenderTable writes the identifiers as a titled table
func RenderTable(w io.Writer, ids []string) error {
	data := pterm.TableData{{"IMAGE"}}
	for _, id := range ids {
		data = append(data, []string{pterm.Cyan(id)})
	}

	pterm.Fprintln(w, pterm.Bold.Sprint("CANFAR Images"))
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render(); err != nil {
		return errors.Errorf("rendering table: %w", err)
	}
	return nil
}
