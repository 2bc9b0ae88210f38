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

package node

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var schemePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9+.\-]*):`)

// 🔌 Schemes reports which URI schemes belong to a remote backend
type Schemes interface {
	Recognizes(scheme string) bool
}

// 📍 Path is a location on either the local filesystem or a remote node store.
// A Path never changes scheme once built; derive new paths with Join or WithCutout.
type Path struct {
	scheme   string // empty for local paths
	location string // full location, including the "scheme:" prefix when remote
	cutout   Cutout
	trailing bool // raw form ended with a separator
}

// 🏭 Parse builds a Path from a raw token. A leading "scheme:" only designates a
// remote path when the scheme is recognized; everything else is a local path
// and is made absolute.
func Parse(raw string, known Schemes) (Path, error) {
	if raw == "" {
		return Path{}, errors.New("empty path")
	}

	trailing := strings.HasSuffix(raw, "/")

	if m := schemePattern.FindStringSubmatch(raw); m != nil && known != nil && known.Recognizes(m[1]) {
		return Path{
			scheme:   m[1],
			location: raw,
			trailing: trailing,
		}, nil
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		return Path{}, errors.Errorf("resolving absolute path for %q: %w", raw, err)
	}

	return Path{
		location: abs,
		trailing: trailing || strings.HasSuffix(raw, string(filepath.Separator)),
	}, nil
}

// 🏭 Remote builds a remote path without consulting a scheme registry
func Remote(scheme, rest string) Path {
	return Path{scheme: scheme, location: scheme + ":" + rest}
}

// 🏭 Local builds a local path as given
func Local(p string) Path {
	return Path{location: p}
}

func (p Path) Scheme() string { return p.scheme }

func (p Path) IsRemote() bool { return p.scheme != "" }

func (p Path) IsZero() bool { return p.location == "" }

// 🔍 Location is the path the backend operates on, without any remote cutout
func (p Path) Location() string { return p.location }

// 🔍 NodePath is the location with the "scheme:" prefix removed
func (p Path) NodePath() string {
	if !p.IsRemote() {
		return p.location
	}
	return strings.TrimPrefix(p.location, p.scheme+":")
}

func (p Path) Cutout() Cutout { return p.cutout }

// 🔍 HasTrailingSeparator reports whether the raw token ended with a separator
func (p Path) HasTrailingSeparator() bool { return p.trailing }

// 📝 String renders the path the way a user would type it, cutout included
func (p Path) String() string {
	return p.location + p.cutout.Raw
}

// 🔍 Base returns the last element of the location, excluding any cutout
func (p Path) Base() string {
	if p.IsRemote() {
		return path.Base(strings.TrimSuffix(p.NodePath(), "/"))
	}
	return filepath.Base(p.location)
}

// 🔍 Dir returns the parent location
func (p Path) Dir() Path {
	if p.IsRemote() {
		return Path{scheme: p.scheme, location: p.scheme + ":" + path.Dir(strings.TrimSuffix(p.NodePath(), "/"))}
	}
	return Path{location: filepath.Dir(p.location)}
}

// 🔗 Join appends a child name. The cutout is not inherited.
func (p Path) Join(child string) Path {
	if p.IsRemote() {
		rest := p.NodePath()
		if rest == "" {
			return Path{scheme: p.scheme, location: p.scheme + ":" + child}
		}
		return Path{scheme: p.scheme, location: p.scheme + ":" + path.Join(rest, child)}
	}
	return Path{location: filepath.Join(p.location, child)}
}

// 🔗 WithCutout attaches a cutout. Remote paths carry it alongside the location so
// the transfer primitive can pass it through; local paths never interpret it and
// take it back verbatim as part of the filename.
func (p Path) WithCutout(c Cutout) Path {
	if c.IsZero() {
		return p
	}
	if !p.IsRemote() {
		p.location += c.Raw
		return p
	}
	p.cutout = c
	return p
}

// 🔍 HasMeta reports whether the location contains glob metacharacters
func (p Path) HasMeta() bool {
	return strings.ContainsAny(p.NodePath(), "*?[")
}
