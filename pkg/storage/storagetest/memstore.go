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

// Package storagetest provides an in-memory node store for exercising the
// remote adapter and the copy engine without a network.
package storagetest

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/canfar/pkg/storage"
	"github.com/walteh/canfar/pkg/storage/remote"
	"gitlab.com/tozd/go/errors"
)

var _ remote.NodeClient = (*MemStore)(nil)

type entry struct {
	kind   remote.NodeKind
	data   []byte
	target string
}

// 🧪 MemStore is an in-memory node store that records the calls made to it
type MemStore struct {
	mu     sync.Mutex
	scheme string
	nodes  map[string]*entry

	// UploadErr, when set, decides the result of each finished upload
	UploadErr func(uri string) error
	// MkdirErr, when set, fails container creation for the uris it returns an error for
	MkdirErr func(uri string) error
	// DeleteErr, when set, fails deletion for the uris it returns an error for
	DeleteErr func(uri string) error

	MkdirCalls    []string
	UploadCalls   []string
	DownloadCalls []string
	ListCalls     []string
	GlobCalls     []string
	DeleteCalls   []string
}

// 🏭 NewMemStore creates an empty store with a root container
func NewMemStore(scheme string) *MemStore {
	return &MemStore{
		scheme: scheme,
		nodes:  map[string]*entry{"/": {kind: remote.ContainerNode}},
	}
}

func (m *MemStore) Scheme() string { return m.scheme }

// 📝 PutDir adds a container and any missing parents
func (m *MemStore) PutDir(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putParents(m.key(p))
	m.nodes[m.key(p)] = &entry{kind: remote.ContainerNode}
}

// 📝 PutFile adds a data node and any missing parents
func (m *MemStore) PutFile(p string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putParents(m.key(p))
	m.nodes[m.key(p)] = &entry{kind: remote.DataNode, data: data}
}

// 📝 PutLink adds a link node pointing at target
func (m *MemStore) PutLink(p, target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putParents(m.key(p))
	m.nodes[m.key(p)] = &entry{kind: remote.LinkNode, target: target}
}

// 🔍 Data returns the content of a data node
func (m *MemStore) Data(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.nodes[m.key(p)]
	if !ok || e.kind != remote.DataNode {
		return nil, false
	}
	return e.data, true
}

func (m *MemStore) GetNode(ctx context.Context, uri string, limit int) (*remote.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(uri)
	e, ok := m.nodes[k]
	if !ok {
		return nil, errors.Errorf("%s: %w", uri, storage.ErrNotFound)
	}

	n := &remote.Node{URI: m.uri(k), Kind: e.kind, Target: e.target}
	if e.kind == remote.ContainerNode && limit != 0 {
		n.Children = m.children(k)
		if limit > 0 && len(n.Children) > limit {
			n.Children = n.Children[:limit]
		}
	}
	return n, nil
}

func (m *MemStore) List(ctx context.Context, uri string, force bool) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls = append(m.ListCalls, uri)

	k := m.key(uri)
	e, ok := m.nodes[k]
	if !ok {
		return nil, errors.Errorf("%s: %w", uri, storage.ErrNotFound)
	}
	if e.kind == remote.LinkNode {
		k = m.key(e.target)
	}
	return m.children(k), nil
}

func (m *MemStore) Mkdir(ctx context.Context, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MkdirCalls = append(m.MkdirCalls, uri)
	if m.MkdirErr != nil {
		if err := m.MkdirErr(uri); err != nil {
			return err
		}
	}

	k := m.key(uri)
	if _, ok := m.nodes[k]; ok {
		return errors.Errorf("%s: node already exists", uri)
	}
	if parent, ok := m.nodes[path.Dir(k)]; !ok || parent.kind != remote.ContainerNode {
		return errors.Errorf("parent of %s: %w", uri, storage.ErrNotFound)
	}
	m.nodes[k] = &entry{kind: remote.ContainerNode}
	return nil
}

func (m *MemStore) Glob(ctx context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GlobCalls = append(m.GlobCalls, pattern)

	pk := m.key(pattern)
	var out []string
	for k := range m.nodes {
		ok, err := doublestar.Match(pk, k)
		if err != nil {
			return nil, errors.Errorf("%w: %v", storage.ErrInvalidReference, err)
		}
		if ok {
			out = append(out, m.uri(k))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemStore) Download(ctx context.Context, uri string, opts remote.DownloadOptions) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DownloadCalls = append(m.DownloadCalls, uri+opts.Cutout)

	e, ok := m.nodes[m.key(uri)]
	if !ok || e.kind != remote.DataNode {
		return nil, errors.Errorf("%s: %w", uri, storage.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(e.data)), nil
}

func (m *MemStore) Upload(ctx context.Context, uri string) (io.WriteCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UploadCalls = append(m.UploadCalls, uri)
	return &upload{store: m, uri: uri}, nil
}

// 🗑️ Delete removes a node and everything below it
func (m *MemStore) Delete(ctx context.Context, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, uri)
	if m.DeleteErr != nil {
		if err := m.DeleteErr(uri); err != nil {
			return err
		}
	}

	k := m.key(uri)
	if k == "/" {
		return errors.Errorf("%w: cannot delete the root container", storage.ErrInvalidReference)
	}
	if _, ok := m.nodes[k]; !ok {
		return errors.Errorf("%s: %w", uri, storage.ErrNotFound)
	}
	for other := range m.nodes {
		if other == k || strings.HasPrefix(other, k+"/") {
			delete(m.nodes, other)
		}
	}
	return nil
}

// 🚚 Move renames a node, or moves it inside dst when dst is a container
func (m *MemStore) Move(ctx context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from, to := m.key(src), m.key(dst)
	if _, ok := m.nodes[from]; !ok {
		return errors.Errorf("%s: %w", src, storage.ErrNotFound)
	}
	if e, ok := m.nodes[to]; ok {
		if e.kind != remote.ContainerNode {
			return errors.Errorf("%s: node already exists", dst)
		}
		to = path.Join(to, path.Base(from))
	}
	if to == from || strings.HasPrefix(to, from+"/") {
		return errors.Errorf("%w: cannot move %s inside itself", storage.ErrInvalidReference, src)
	}
	if parent, ok := m.nodes[path.Dir(to)]; !ok || parent.kind != remote.ContainerNode {
		return errors.Errorf("parent of %s: %w", dst, storage.ErrNotFound)
	}

	moved := map[string]*entry{}
	for other, e := range m.nodes {
		if other == from || strings.HasPrefix(other, from+"/") {
			moved[other] = e
		}
	}
	for other, e := range moved {
		delete(m.nodes, other)
		m.nodes[to+strings.TrimPrefix(other, from)] = e
	}
	return nil
}

// 🔗 Link adds a link node; the target is not checked
func (m *MemStore) Link(ctx context.Context, uri, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(uri)
	if _, ok := m.nodes[k]; ok {
		return errors.Errorf("%s: node already exists", uri)
	}
	if parent, ok := m.nodes[path.Dir(k)]; !ok || parent.kind != remote.ContainerNode {
		return errors.Errorf("parent of %s: %w", uri, storage.ErrNotFound)
	}
	m.nodes[k] = &entry{kind: remote.LinkNode, target: target}
	return nil
}

// UploadCount returns the number of uploads started for uri
func (m *MemStore) UploadCount(uri string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.UploadCalls {
		if u == uri {
			n++
		}
	}
	return n
}

type upload struct {
	store *MemStore
	uri   string
	buf   bytes.Buffer
}

func (u *upload) Write(p []byte) (int, error) { return u.buf.Write(p) }

func (u *upload) Close() error {
	if u.store.UploadErr != nil {
		if err := u.store.UploadErr(u.uri); err != nil {
			return err
		}
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	k := u.store.key(u.uri)
	if parent, ok := u.store.nodes[path.Dir(k)]; !ok || parent.kind != remote.ContainerNode {
		return errors.Errorf("parent of %s: %w", u.uri, storage.ErrNotFound)
	}
	u.store.nodes[k] = &entry{kind: remote.DataNode, data: u.buf.Bytes()}
	return nil
}

func (m *MemStore) key(uri string) string {
	rest := strings.TrimPrefix(uri, m.scheme+":")
	return path.Clean("/" + rest)
}

func (m *MemStore) uri(k string) string {
	return m.scheme + ":" + k
}

func (m *MemStore) children(k string) []string {
	var names []string
	for other := range m.nodes {
		if other != k && path.Dir(other) == k {
			names = append(names, path.Base(other))
		}
	}
	sort.Strings(names)
	return names
}

func (m *MemStore) putParents(k string) {
	for dir := path.Dir(k); dir != "/"; dir = path.Dir(dir) {
		if _, ok := m.nodes[dir]; !ok {
			m.nodes[dir] = &entry{kind: remote.ContainerNode}
		}
	}
}
