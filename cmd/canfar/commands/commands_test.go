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

package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/jonboulle/clockwork"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/canfar/cmd/canfar/opts"
	"github.com/walteh/canfar/pkg/config"
	"github.com/walteh/canfar/pkg/log"
	"github.com/walteh/canfar/pkg/storage"
	"github.com/walteh/canfar/pkg/storage/local"
	"github.com/walteh/canfar/pkg/storage/remote"
	"github.com/walteh/canfar/pkg/storage/storagetest"
	"github.com/walteh/canfar/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

type harness struct {
	opts    *opts.RootOpts
	fs      afero.Fs
	store   *storagetest.MemStore
	console *bytes.Buffer
	out     *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	color.NoColor = true
	pterm.DisableColor()
	t.Cleanup(func() {
		color.NoColor = false
		pterm.EnableColor()
	})

	cfg := &config.Config{}
	require.NoError(t, cfg.Validate())

	fs := afero.NewMemMapFs()
	store := storagetest.NewMemStore("vos")
	registry := storage.NewRegistry(local.New(fs))
	registry.Register(remote.New(store))

	console := &bytes.Buffer{}
	out := &bytes.Buffer{}

	return &harness{
		opts: &opts.RootOpts{
			Config:   cfg,
			Logger:   log.New(console, zerolog.New(zerolog.NewTestWriter(t))),
			Registry: registry,
			Clock:    clockwork.NewFakeClock(),
			In:       strings.NewReader(""),
			Out:      out,
			Err:      console,
		},
		fs:      fs,
		store:   store,
		console: console,
		out:     out,
	}
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exit *opts.ExitError
	require.True(t, errors.As(err, &exit), "expected an exit error, got %v", err)
	return exit.Code
}

func abs(t *testing.T, p string) string {
	t.Helper()
	a, err := filepath.Abs(p)
	require.NoError(t, err)
	return a
}

func TestCopy(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T, h *harness) transfer.Spec
		wantCode    int
		wantConsole []string
		validate    func(t *testing.T, h *harness)
	}{
		{
			name: "local_directory_to_remote",
			setup: func(t *testing.T, h *harness) transfer.Spec {
				require.NoError(t, afero.WriteFile(h.fs, abs(t, "src/a.txt"), []byte("a"), 0o644))
				require.NoError(t, afero.WriteFile(h.fs, abs(t, "src/b.txt"), []byte("b"), 0o644))
				return transfer.Spec{Sources: []string{"src"}, Destination: "vos:/dst"}
			},
			wantConsole: []string{"vos:/dst/a.txt", "vos:/dst/b.txt", "2 copied, 0 skipped, 0 failed"},
			validate: func(t *testing.T, h *harness) {
				data, ok := h.store.Data("vos:/dst/b.txt")
				require.True(t, ok)
				assert.Equal(t, "b", string(data))
			},
		},
		{
			name: "locked_destination_hints_vlock",
			setup: func(t *testing.T, h *harness) transfer.Spec {
				require.NoError(t, afero.WriteFile(h.fs, abs(t, "a.txt"), []byte("a"), 0o644))
				h.store.PutDir("/dst")
				h.store.UploadErr = func(string) error { return storage.ErrNodeLocked }
				return transfer.Spec{Sources: []string{"a.txt"}, Destination: "vos:/dst"}
			},
			wantCode:    1,
			wantConsole: []string{"Use vlock to unlock the node before copying to vos:/dst/a.txt"},
		},
		{
			name: "remote_failure_names_the_pair",
			setup: func(t *testing.T, h *harness) transfer.Spec {
				require.NoError(t, afero.WriteFile(h.fs, abs(t, "a.txt"), []byte("a"), 0o644))
				h.store.PutDir("/dst")
				h.store.UploadErr = func(string) error { return errors.Errorf("%w: 503", storage.ErrRemoteService) }
				return transfer.Spec{Sources: []string{"a.txt"}, Destination: "vos:/dst"}
			},
			wantCode:    1,
			wantConsole: []string{"Failure at remote server while copying " + abs(t, "a.txt") + " -> vos:/dst/a.txt"},
		},
		{
			name: "missing_source_adds_access_status",
			setup: func(t *testing.T, h *harness) transfer.Spec {
				h.store.PutDir("/dst")
				return transfer.Spec{Sources: []string{"missing.txt"}, Destination: "vos:/dst"}
			},
			wantCode:    13,
			wantConsole: []string{"0 copied, 0 skipped, 1 failed (exit status 13)"},
		},
		{
			name: "remote_to_remote_is_rejected",
			setup: func(t *testing.T, h *harness) transfer.Spec {
				h.store.PutFile("/a.txt", []byte("a"))
				return transfer.Spec{Sources: []string{"vos:/a.txt"}, Destination: "vos:/b.txt"}
			},
			wantCode:    1,
			wantConsole: []string{"cannot (yet) copy from a remote store to a remote store"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			spec := tt.setup(t, h)

			err := Copy(testContext(t), h.opts, spec)
			assert.Equal(t, tt.wantCode, exitCodeOf(t, err))

			for _, want := range tt.wantConsole {
				assert.Contains(t, h.console.String(), want)
			}
			if tt.validate != nil {
				tt.validate(t, h)
			}
		})
	}
}

func TestCopyInterrupted(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, afero.WriteFile(h.fs, abs(t, "a.txt"), []byte("a"), 0o644))
	h.store.PutDir("/dst")

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	err := Copy(ctx, h.opts, transfer.Spec{Sources: []string{"a.txt"}, Destination: "vos:/dst"})
	assert.Equal(t, 1, exitCodeOf(t, err))
	assert.Contains(t, h.console.String(), "Received keyboard interrupt. Execution aborted.")
	assert.Empty(t, h.store.UploadCalls)
}

func TestCpCmdFlags(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, afero.WriteFile(h.fs, abs(t, "src/keep.fits"), []byte("k"), 0o644))
	require.NoError(t, afero.WriteFile(h.fs, abs(t, "src/drop.txt"), []byte("d"), 0o644))

	cmd := NewCpCmd(h.opts)
	cmd.SetArgs([]string{"--exclude", "drop,tmp", "src", "vos:/dst"})
	require.NoError(t, cmd.ExecuteContext(testContext(t)))

	_, ok := h.store.Data("vos:/dst/keep.fits")
	assert.True(t, ok)
	_, ok = h.store.Data("vos:/dst/drop.txt")
	assert.False(t, ok)
}

func TestCat(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, h *harness)
		raw     string
		head    bool
		want    string
		wantErr string
	}{
		{
			name:  "remote_file",
			setup: func(t *testing.T, h *harness) { h.store.PutFile("/notes.txt", []byte("hello\n")) },
			raw:   "vos:/notes.txt",
			want:  "hello\n",
		},
		{
			name: "local_file",
			setup: func(t *testing.T, h *harness) {
				require.NoError(t, afero.WriteFile(h.fs, abs(t, "local.txt"), []byte("here"), 0o644))
			},
			raw:  "local.txt",
			want: "here",
		},
		{
			name:    "head_needs_remote",
			setup:   func(t *testing.T, h *harness) {},
			raw:     "local.txt",
			head:    true,
			wantErr: "--head only works for remote source files",
		},
		{
			name:    "missing_remote",
			setup:   func(t *testing.T, h *harness) {},
			raw:     "vos:/nope.txt",
			wantErr: "node not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(t, h)

			err := Cat(testContext(t), h.opts, tt.raw, tt.head)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.out.String())
		})
	}
}

func TestMkdir(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(h *harness)
		raw         string
		parents     bool
		wantErr     string
		wantCalls   []string
		wantConsole []string
	}{
		{
			name:        "single_container",
			raw:         "vos:/proj",
			wantCalls:   []string{"vos:/proj"},
			wantConsole: []string{"✅ Created vos:/proj"},
		},
		{
			name:        "parents_top_down",
			setup:       func(h *harness) { h.store.PutDir("/proj") },
			raw:         "vos:/proj/a/b",
			parents:     true,
			wantCalls:   []string{"vos:/proj/a", "vos:/proj/a/b"},
			wantConsole: []string{"✅ Created vos:/proj/a", "✅ Created vos:/proj/a/b"},
		},
		{
			name:    "existing_with_parents_is_fine",
			setup:   func(h *harness) { h.store.PutDir("/proj") },
			raw:     "vos:/proj",
			parents: true,
		},
		{
			name:    "existing_without_parents_fails",
			setup:   func(h *harness) { h.store.PutDir("/proj") },
			raw:     "vos:/proj",
			wantErr: "already exists",
		},
		{
			name:    "missing_parent_without_flag",
			raw:     "vos:/proj/a",
			wantErr: "node not found",
		},
		{
			name:    "local_path_rejected",
			raw:     "some/dir",
			wantErr: "invalid reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}

			err := Mkdir(testContext(t), h.opts, tt.raw, tt.parents)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, h.store.MkdirCalls)
			for _, want := range tt.wantConsole {
				assert.Contains(t, h.console.String(), want)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(h *harness)
		raw         string
		recursive   bool
		wantErr     string
		wantExit    int
		wantDeletes []string
		wantConsole string
		wantGone    []string
		wantKept    []string
	}{
		{
			name:        "data_node",
			setup:       func(h *harness) { h.store.PutFile("/data/a.txt", []byte("a")) },
			raw:         "vos:/data/a.txt",
			wantDeletes: []string{"vos:/data/a.txt"},
			wantConsole: "✅ Deleted vos:/data/a.txt",
			wantGone:    []string{"/data/a.txt"},
		},
		{
			name: "link_leaves_target",
			setup: func(h *harness) {
				h.store.PutFile("/data/a.txt", []byte("a"))
				h.store.PutLink("/alias", "vos:/data/a.txt")
			},
			raw:         "vos:/alias",
			wantDeletes: []string{"vos:/alias"},
			wantConsole: "✅ Deleted link vos:/alias",
			wantKept:    []string{"/data/a.txt"},
		},
		{
			name:     "container_needs_recursive",
			setup:    func(h *harness) { h.store.PutFile("/data/a.txt", []byte("a")) },
			raw:      "vos:/data",
			wantErr:  "is a directory (use -R for recursive delete)",
			wantKept: []string{"/data/a.txt"},
		},
		{
			name:     "trailing_separator_on_file",
			setup:    func(h *harness) { h.store.PutFile("/data/a.txt", []byte("a")) },
			raw:      "vos:/data/a.txt/",
			wantErr:  "is not a directory",
			wantKept: []string{"/data/a.txt"},
		},
		{
			name:    "missing_node",
			raw:     "vos:/nope.txt",
			wantErr: "node not found",
		},
		{
			name:    "local_path_rejected",
			raw:     "some/file.txt",
			wantErr: "is not a valid node store handle",
		},
		{
			name: "recursive_counts_every_node",
			setup: func(h *harness) {
				h.store.PutFile("/data/a.txt", []byte("a"))
				h.store.PutFile("/data/sub/b.txt", []byte("b"))
			},
			raw:         "vos:/data/",
			recursive:   true,
			wantDeletes: []string{"vos:/data/a.txt", "vos:/data/sub/b.txt", "vos:/data/sub", "vos:/data/"},
			wantConsole: "✅ Deleted 4 node(s)",
			wantGone:    []string{"/data/a.txt", "/data/sub/b.txt"},
		},
		{
			name: "recursive_with_failures",
			setup: func(h *harness) {
				h.store.PutFile("/data/a.txt", []byte("a"))
				h.store.PutFile("/data/locked.txt", []byte("l"))
				h.store.DeleteErr = func(uri string) error {
					if uri == "vos:/data/locked.txt" {
						return storage.ErrNodeLocked
					}
					return nil
				}
			},
			raw:         "vos:/data",
			recursive:   true,
			wantExit:    1,
			wantDeletes: []string{"vos:/data/a.txt", "vos:/data/locked.txt"},
			wantConsole: "deleted 1, failed 2",
			wantGone:    []string{"/data/a.txt"},
			wantKept:    []string{"/data/locked.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}

			err := Remove(testContext(t), h.opts, tt.raw, tt.recursive)
			switch {
			case tt.wantErr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Empty(t, h.store.DeleteCalls)
			default:
				assert.Equal(t, tt.wantExit, exitCodeOf(t, err))
				assert.Equal(t, tt.wantDeletes, h.store.DeleteCalls)
				assert.Contains(t, h.console.String(), tt.wantConsole)
			}

			for _, p := range tt.wantGone {
				_, ok := h.store.Data(p)
				assert.False(t, ok, "%s should be gone", p)
			}
			for _, p := range tt.wantKept {
				_, ok := h.store.Data(p)
				assert.True(t, ok, "%s should be kept", p)
			}
		})
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		dst      string
		wantErr  string
		wantPath string
	}{
		{name: "rename", src: "vos:/data/a.txt", dst: "vos:/data/b.txt", wantPath: "/data/b.txt"},
		{name: "into_container", src: "vos:/data/a.txt", dst: "vos:/archive/", wantPath: "/archive/a.txt"},
		{name: "local_source", src: "a.txt", dst: "vos:/archive", wantErr: "source a.txt is not a remote node"},
		{name: "local_destination", src: "vos:/data/a.txt", dst: "out.txt", wantErr: "destination out.txt is not a remote node"},
		{name: "missing_source", src: "vos:/data/nope.txt", dst: "vos:/archive", wantErr: "node not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.store.PutFile("/data/a.txt", []byte("payload"))
			h.store.PutDir("/archive")

			err := Move(testContext(t), h.opts, tt.src, tt.dst)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				_, ok := h.store.Data("/data/a.txt")
				assert.True(t, ok)
				return
			}
			require.NoError(t, err)

			data, ok := h.store.Data(tt.wantPath)
			require.True(t, ok)
			assert.Equal(t, "payload", string(data))
			assert.Contains(t, h.console.String(), "✅ Moved "+tt.src+" -> "+tt.dst)
		})
	}
}

func TestLink(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		target  string
		wantErr string
	}{
		{name: "node_target", source: "vos:/data/a.txt", target: "vos:/data/link.txt"},
		{name: "external_url", source: "https://example.com/data.fits", target: "vos:/data/external"},
		{name: "local_target_rejected", source: "vos:/data/a.txt", target: "link.txt", wantErr: "must be a node store uri"},
		{name: "existing_target", source: "vos:/data/a.txt", target: "vos:/data/a.txt", wantErr: "already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.store.PutFile("/data/a.txt", []byte("a"))

			err := Link(testContext(t), h.opts, tt.source, tt.target)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			target, err := h.opts.Registry.Parse(tt.target)
			require.NoError(t, err)
			adapter, err := h.opts.Registry.For(target)
			require.NoError(t, err)
			isLink, err := adapter.IsSymlink(testContext(t), target)
			require.NoError(t, err)
			assert.True(t, isLink)
			assert.Contains(t, h.console.String(), "✅ Created link "+tt.target+" -> "+tt.source)
		})
	}
}

func TestConfigCmd(t *testing.T) {
	h := newHarness(t)
	h.opts.Config.Context.Token = "secret-token"

	cmd := NewConfigCmd(h.opts)
	cmd.SetArgs([]string{"show"})
	require.NoError(t, cmd.ExecuteContext(testContext(t)))

	assert.Contains(t, h.console.String(), "does not exist, showing defaults.")
	assert.Contains(t, h.out.String(), "endpoint: https://ws-uv.canfar.net")
	assert.Contains(t, h.out.String(), "********")
	assert.NotContains(t, h.out.String(), "secret-token")
}

func TestExitErrorClamp(t *testing.T) {
	tests := []struct {
		status int
		want   int
	}{
		{status: 0, want: 1},
		{status: 13, want: 13},
		{status: 312, want: 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, opts.NewExitError(tt.status).Code, "status %d", tt.status)
	}
}
