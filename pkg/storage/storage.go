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

package storage

import (
	"context"
	"io"

	"github.com/walteh/canfar/pkg/node"
	"gitlab.com/tozd/go/errors"
)

// 🔑 AccessMode selects what Exists probes for
type AccessMode int

const (
	AccessExists AccessMode = iota
	AccessRead
	AccessWrite
)

func (m AccessMode) String() string {
	switch m {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return "exists"
	}
}

// 🔌 Adapter is the capability set every storage backend provides.
// All methods except Open and Create are metadata probes without side effects.
type Adapter interface {
	// Schemes lists the URI schemes this adapter serves; empty for the local filesystem
	Schemes() []string
	// Exists probes for the path under the given access mode
	Exists(ctx context.Context, p node.Path, mode AccessMode) (bool, error)
	// IsDir reports whether the path is a directory (links are followed)
	IsDir(ctx context.Context, p node.Path) (bool, error)
	// IsSymlink reports whether the path itself is a link; missing paths are not links
	IsSymlink(ctx context.Context, p node.Path) (bool, error)
	// List returns the child names of a directory, always freshly fetched
	List(ctx context.Context, p node.Path) ([]string, error)
	// MakeDir creates a single directory
	MakeDir(ctx context.Context, p node.Path) error
	// Expand returns the paths matching a wildcard pattern
	Expand(ctx context.Context, pattern node.Path) ([]node.Path, error)
	// ResolveLink returns the final non-link target of a link
	ResolveLink(ctx context.Context, p node.Path) (node.Path, error)
	// Open streams the file content; head requests only the header view
	Open(ctx context.Context, p node.Path, head bool) (io.ReadCloser, error)
	// Create opens the path for writing, replacing existing content
	Create(ctx context.Context, p node.Path) (io.WriteCloser, error)
}

// 🗃️ NodeManager is implemented by backends that change nodes in place
type NodeManager interface {
	// Delete removes the node at p, and everything below it for a container
	Delete(ctx context.Context, p node.Path) error
	// Move renames src to dst within one backend
	Move(ctx context.Context, src, dst node.Path) error
	// Link creates a link at p pointing at target
	Link(ctx context.Context, p node.Path, target string) error
}

// 🚚 copyStream moves one file's bytes between two adapters. Both handles are
// released on every path; a failed close of the destination is the transfer's error.
func copyStream(ctx context.Context, from Adapter, src node.Path, to Adapter, dst node.Path, head bool) (err error) {
	reader, err := from.Open(ctx, src, head)
	if err != nil {
		return errors.Errorf("opening source %s: %w", src, err)
	}
	defer reader.Close()

	writer, err := to.Create(ctx, dst)
	if err != nil {
		return errors.Errorf("creating destination %s: %w", dst, err)
	}

	if _, err := io.Copy(writer, reader); err != nil {
		_ = writer.Close()
		return errors.Errorf("copying %s -> %s: %w", src, dst, err)
	}

	if err := writer.Close(); err != nil {
		return errors.Errorf("finishing %s: %w", dst, err)
	}

	return nil
}
