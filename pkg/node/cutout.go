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
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// one or more bracketed sections of one or two axis ranges, anchored at the end
	pixelPattern = regexp.MustCompile(
		`^(.*?)(?P<cutout>(\[[\-+]?[\d*]+(:[\-+]?[\d*]+)?(,[\-+]?[\d*]+(:[\-+]?[\d*]+)?)?\])+)$`)

	pixelSection = regexp.MustCompile(`\[([^\]]*)\]`)

	spatialPattern = regexp.MustCompile(
		`^([^()]*?)(?P<cutout>\((?P<ra>[\-+]?(?:\d+(?:\.\d*)?|\.\d+)),` +
			`(?P<dec>[\-+]?(?:\d+(?:\.\d*)?|\.\d+)),` +
			`(?P<rad>(?:\d+(?:\.\d*)?|\.\d+))\))$`)
)

// 🎯 CutoutKind is the kind of sub-resource selector
type CutoutKind int

const (
	CutoutNone CutoutKind = iota
	CutoutPixel
	CutoutSpatial
)

func (k CutoutKind) String() string {
	switch k {
	case CutoutPixel:
		return "pixel"
	case CutoutSpatial:
		return "spatial"
	default:
		return "none"
	}
}

// AxisRange is one axis of a pixel section: a single index or start:stop.
// Endpoints are kept as written since they may carry a sign or a "*".
type AxisRange struct {
	Start string
	Stop  string // empty for a single index
}

func (r AxisRange) String() string {
	if r.Stop == "" {
		return r.Start
	}
	return r.Start + ":" + r.Stop
}

// ✂️ Cutout selects a pixel or sky region of a remote file instead of the whole file.
// Raw is passed through to the transfer primitive untouched.
type Cutout struct {
	Kind     CutoutKind
	Raw      string
	Sections [][]AxisRange // pixel only, one entry per bracketed section
	RA       float64       // spatial only
	Dec      float64
	Radius   float64
}

func (c Cutout) IsZero() bool { return c.Kind == CutoutNone }

func (c Cutout) String() string {
	switch c.Kind {
	case CutoutSpatial:
		return fmt.Sprintf("(ra=%g, dec=%g, radius=%g)", c.RA, c.Dec, c.Radius)
	default:
		return c.Raw
	}
}

// ✂️ ParseSource splits a source token into its bare path and an optional cutout.
// The pixel grammar is tried first and the spatial grammar second.
func ParseSource(token string) (string, Cutout) {
	if m := pixelPattern.FindStringSubmatch(token); m != nil {
		raw := m[pixelPattern.SubexpIndex("cutout")]
		return m[1], Cutout{
			Kind:     CutoutPixel,
			Raw:      raw,
			Sections: parseSections(raw),
		}
	}

	if m := spatialPattern.FindStringSubmatch(token); m != nil {
		ra, errRA := strconv.ParseFloat(m[spatialPattern.SubexpIndex("ra")], 64)
		dec, errDec := strconv.ParseFloat(m[spatialPattern.SubexpIndex("dec")], 64)
		rad, errRad := strconv.ParseFloat(m[spatialPattern.SubexpIndex("rad")], 64)
		if errRA == nil && errDec == nil && errRad == nil {
			return m[1], Cutout{
				Kind:   CutoutSpatial,
				Raw:    m[spatialPattern.SubexpIndex("cutout")],
				RA:     ra,
				Dec:    dec,
				Radius: rad,
			}
		}
	}

	return token, Cutout{}
}

func parseSections(raw string) [][]AxisRange {
	var sections [][]AxisRange
	for _, sec := range pixelSection.FindAllStringSubmatch(raw, -1) {
		var axes []AxisRange
		for _, axis := range strings.Split(sec[1], ",") {
			start, stop, _ := strings.Cut(axis, ":")
			axes = append(axes, AxisRange{Start: start, Stop: stop})
		}
		sections = append(sections, axes)
	}
	return sections
}
