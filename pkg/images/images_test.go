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

package images

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []Image{
	{ID: "images.canfar.net/skaha/base-notebook:latest", Types: []string{"notebook"}, Digest: "sha256:aaa"},
	{ID: "images.canfar.net/skaha/terminal:1.1.1", Types: []string{"headless", "notebook"}, Digest: "sha256:deadbeef"},
	{ID: "images.canfar.net/skaha/desktop:0.2", Types: []string{"desktop"}, Digest: "sha256:bbb"},
}

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind := r.URL.Query().Get("type")
		var out []Image
		for _, img := range catalog {
			for _, k := range img.Types {
				if kind == "" || k == kind {
					out = append(out, img)
					break
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(out))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newCatalogServer(t)
	c := New(srv.URL, srv.Client())
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	tests := []struct {
		name string
		kind string
		want []string
	}{
		{name: "all", want: []string{
			"images.canfar.net/skaha/base-notebook:latest",
			"images.canfar.net/skaha/terminal:1.1.1",
			"images.canfar.net/skaha/desktop:0.2",
		}},
		{name: "by_kind", kind: "notebook", want: []string{
			"images.canfar.net/skaha/base-notebook:latest",
			"images.canfar.net/skaha/terminal:1.1.1",
		}},
		{name: "unknown_kind", kind: "contributed", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Fetch(ctx, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetails(t *testing.T) {
	srv := newCatalogServer(t)
	c := New(srv.URL, srv.Client())

	got, err := c.Details(context.Background(), "headless")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, catalog[1], got[0])
}

func TestDetailsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client()).Details(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestRenderTable(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()

	buf := &bytes.Buffer{}
	require.NoError(t, RenderTable(buf, []string{"images.canfar.net/skaha/base-notebook:latest"}))

	out := buf.String()
	assert.Contains(t, out, "CANFAR Images")
	assert.Contains(t, out, "IMAGE")
	assert.Contains(t, out, "images.canfar.net/skaha/base-notebook:latest")
}
