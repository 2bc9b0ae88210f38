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
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/canfar/pkg/node"
	"gitlab.com/tozd/go/errors"
)

// 📚 Registry resolves the adapter serving a path. The local adapter handles
// every path whose scheme is not registered.
type Registry struct {
	local   Adapter
	remotes map[string]Adapter
}

// 🏭 NewRegistry creates a registry with the given local adapter
func NewRegistry(local Adapter) *Registry {
	return &Registry{
		local:   local,
		remotes: map[string]Adapter{},
	}
}

// 📝 Register adds a remote adapter under each of its schemes
func (r *Registry) Register(a Adapter) {
	for _, s := range a.Schemes() {
		r.remotes[s] = a
	}
}

// 🔍 Recognizes reports whether scheme is served by a remote adapter
func (r *Registry) Recognizes(scheme string) bool {
	_, ok := r.remotes[scheme]
	return ok
}

// 🔍 Schemes lists the registered remote schemes
func (r *Registry) Schemes() []string {
	options := make([]string, 0, len(r.remotes))
	for k := range r.remotes {
		options = append(options, k)
	}
	sort.Strings(options)
	return options
}

// 🏭 Parse builds a Path using this registry's schemes
func (r *Registry) Parse(raw string) (node.Path, error) {
	return node.Parse(raw, r)
}

// 🎯 For returns the adapter serving p
func (r *Registry) For(p node.Path) (Adapter, error) {
	if !p.IsRemote() {
		if r.local == nil {
			return nil, errors.Errorf("no local adapter configured for %s", p)
		}
		return r.local, nil
	}

	a, ok := r.remotes[p.Scheme()]
	if !ok {
		return nil, errors.Errorf("%w %q, options: %s", ErrUnknownScheme, p.Scheme(), strings.Join(r.Schemes(), ", "))
	}
	return a, nil
}

// 🗃️ Manager returns the node manager serving p. Only remote backends manage
// nodes in place.
func (r *Registry) Manager(p node.Path) (NodeManager, error) {
	a, err := r.For(p)
	if err != nil {
		return nil, err
	}
	m, ok := a.(NodeManager)
	if !ok || !p.IsRemote() {
		return nil, errors.Errorf("%w: %s is not a node store uri", ErrInvalidReference, p)
	}
	return m, nil
}

// 🚚 Transfer moves exactly one file's bytes from src to dst
func (r *Registry) Transfer(ctx context.Context, src, dst node.Path, head bool) error {
	from, err := r.For(src)
	if err != nil {
		return err
	}
	to, err := r.For(dst)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().
		Str("source", src.String()).
		Str("destination", dst.String()).
		Bool("head", head).
		Msg("starting transfer")

	if err := copyStream(ctx, from, src, to, dst, head); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("destination", dst.String()).Msg("transfer complete")
	return nil
}
