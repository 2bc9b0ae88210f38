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

package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/canfar/pkg/node"
	"github.com/walteh/canfar/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

const maxLinkHops = 40

var _ storage.Adapter = (*Adapter)(nil)

// 💾 Adapter serves local filesystem paths
type Adapter struct {
	fs afero.Fs
}

// 🏭 New creates a local adapter over fs; nil means the OS filesystem
func New(fs afero.Fs) *Adapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Adapter{fs: fs}
}

func (a *Adapter) Schemes() []string { return nil }

// 🔍 Exists probes the path; read access is checked by opening it
func (a *Adapter) Exists(ctx context.Context, p node.Path, mode storage.AccessMode) (bool, error) {
	zerolog.Ctx(ctx).Debug().Str("path", p.String()).Stringer("mode", mode).Msg("checking access")

	info, err := a.fs.Stat(p.Location())
	if err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, errors.Errorf("stat %s: %w", p, err)
	}

	switch mode {
	case storage.AccessRead:
		f, err := a.fs.Open(p.Location())
		if err != nil {
			return false, nil
		}
		_ = f.Close()
		return true, nil
	case storage.AccessWrite:
		return info.Mode().Perm()&0o200 != 0, nil
	default:
		return true, nil
	}
}

func (a *Adapter) IsDir(ctx context.Context, p node.Path) (bool, error) {
	info, err := a.fs.Stat(p.Location())
	if err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, errors.Errorf("stat %s: %w", p, err)
	}
	return info.IsDir(), nil
}

func (a *Adapter) IsSymlink(ctx context.Context, p node.Path) (bool, error) {
	lstater, ok := a.fs.(afero.Lstater)
	if !ok {
		return false, nil
	}

	info, _, err := lstater.LstatIfPossible(p.Location())
	if err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, errors.Errorf("lstat %s: %w", p, err)
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

func (a *Adapter) List(ctx context.Context, p node.Path) ([]string, error) {
	zerolog.Ctx(ctx).Debug().Str("path", p.String()).Msg("listing directory")

	infos, err := afero.ReadDir(a.fs, p.Location())
	if err != nil {
		return nil, errors.Errorf("reading directory %s: %w", p, err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

func (a *Adapter) MakeDir(ctx context.Context, p node.Path) error {
	zerolog.Ctx(ctx).Debug().Str("path", p.String()).Msg("making directory")

	if err := a.fs.Mkdir(p.Location(), 0o755); err != nil {
		return errors.Errorf("making directory %s: %w", p, err)
	}
	return nil
}

// 🔍 Expand globs the pattern on the filesystem
func (a *Adapter) Expand(ctx context.Context, pattern node.Path) ([]node.Path, error) {
	matches, err := afero.Glob(a.fs, pattern.Location())
	if err != nil {
		return nil, errors.Errorf("%w: bad pattern %s: %v", storage.ErrInvalidReference, pattern, err)
	}

	paths := make([]node.Path, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, node.Local(m))
	}
	return paths, nil
}

// 🔗 ResolveLink follows a chain of symlinks to its final target
func (a *Adapter) ResolveLink(ctx context.Context, p node.Path) (node.Path, error) {
	reader, ok := a.fs.(afero.LinkReader)
	if !ok {
		return p, nil
	}

	current := p.Location()
	for range maxLinkHops {
		isLink, err := a.IsSymlink(ctx, node.Local(current))
		if err != nil {
			return node.Path{}, err
		}
		if !isLink {
			return node.Local(current), nil
		}

		target, err := reader.ReadlinkIfPossible(current)
		if err != nil {
			return node.Path{}, errors.Errorf("reading link %s: %w", current, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = filepath.Clean(target)
	}

	return node.Path{}, errors.Errorf("resolving %s: %w", p, syscall.ELOOP)
}

func (a *Adapter) Open(ctx context.Context, p node.Path, head bool) (io.ReadCloser, error) {
	f, err := a.fs.Open(p.Location())
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", p, err)
	}
	return f, nil
}

func (a *Adapter) Create(ctx context.Context, p node.Path) (io.WriteCloser, error) {
	f, err := a.fs.OpenFile(p.Location(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Errorf("creating %s: %w", p, err)
	}
	return f, nil
}

func isMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
