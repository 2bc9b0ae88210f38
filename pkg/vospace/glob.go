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

package vospace

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/canfar/pkg/storage"
	"gitlab.com/tozd/go/errors"
)

// 🔍 Glob expands shell wildcards one path segment at a time, listing only
// the containers a wildcard segment needs. A pattern without wildcards
// matches itself when the node exists.
func (c *Client) Glob(ctx context.Context, pattern string) ([]string, error) {
	nodePath, err := c.nodePath(pattern)
	if err != nil {
		return nil, err
	}
	if !doublestar.ValidatePattern(nodePath) {
		return nil, errors.Errorf("%w: bad pattern %q", storage.ErrInvalidReference, pattern)
	}

	candidates := []string{"/"}
	literalTail := false
	for _, seg := range strings.Split(strings.Trim(nodePath, "/"), "/") {
		if seg == "" {
			continue
		}
		if !hasMeta(seg) {
			for i := range candidates {
				candidates[i] = path.Join(candidates[i], seg)
			}
			literalTail = true
			continue
		}

		var next []string
		for _, dir := range candidates {
			names, isContainer, err := c.children(ctx, c.shortURI(dir), nil)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}
				return nil, err
			}
			if !isContainer {
				continue
			}
			for _, name := range names {
				ok, err := doublestar.Match(seg, name)
				if err != nil {
					return nil, errors.Errorf("%w: %v", storage.ErrInvalidReference, err)
				}
				if ok {
					next = append(next, path.Join(dir, name))
				}
			}
		}
		candidates = next
		literalTail = false
	}

	var out []string
	for _, p := range candidates {
		if literalTail {
			if _, err := c.GetNode(ctx, c.shortURI(p), 0); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}
				return nil, err
			}
		}
		out = append(out, c.shortURI(p))
	}
	sort.Strings(out)
	return out, nil
}

func hasMeta(seg string) bool {
	return strings.ContainsAny(seg, "*?[{")
}
