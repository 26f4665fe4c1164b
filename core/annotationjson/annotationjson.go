// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Codec between the shape model and the annotation JSON array exchanged with the slide
// server. The wire format is lossy on purpose:
//   - coordinates are truncated toward zero to integers
//   - point markers travel as 10x10 ellipses, one entry per point
//   - every composite region in a set is merged into a single trailing "brush" entry
//
// Encoding and decoding are pure functions of their inputs.
package annotationjson

import (
	"errors"
	"fmt"

	"github.com/slidescore/slidebridge/core/geometry"
)

// ErrMalformedPayload - decode input was not a JSON array of annotation objects
var ErrMalformedPayload = errors.New("malformed annotation payload")

// UnknownShapeTypeError - an entry had a type we don't know. Not fatal, the entry is skipped.
type UnknownShapeTypeError struct {
	Type  string
	Index int
}

func (e *UnknownShapeTypeError) Error() string {
	return fmt.Sprintf("unknown annotation type \"%v\" in entry %v", e.Type, e.Index)
}

// LabelVisibility - when the server shows a label. Values we don't list are kept as-is.
type LabelVisibility string

const (
	Always  LabelVisibility = "always"
	OnHover LabelVisibility = "hover"
	Never   LabelVisibility = "never"
)

// Label - free text attached to an annotation, carried through untouched
type Label struct {
	Position   geometry.Point
	FontSize   int
	Text       string
	Visibility LabelVisibility
}

// Annotation - a shape with the metadata that travels along with it on the wire
type Annotation struct {
	Shape geometry.Shape
	Label *Label
	Name  string
	// 0xRRGGBB, nil if not specified
	Color *int
}

// EncodeOptions - values stamped on every encoded entry. Nil fields are left out entirely.
type EncodeOptions struct {
	Color *int
	Name  *string
}

// PointMarkerRadius - radius of the ellipse each point marker is sent as
const PointMarkerRadius = 10

const (
	typeRect     = "rect"
	typeEllipse  = "ellipse"
	typePolygon  = "polygon"
	typePolyline = "polyline"
	typeBrush    = "brush"
)

type wirePoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type wireLabel struct {
	X          int    `json:"x"`
	Y          int    `json:"y"`
	FontSize   int    `json:"fontSize"`
	Text       string `json:"label"`
	WhenToShow string `json:"whenToShow"`
}

// Fields every entry may carry, embedded so they come after the geometry
type wireMeta struct {
	Name  string     `json:"name,omitempty"`
	Color string     `json:"color,omitempty"`
	Label *wireLabel `json:"label,omitempty"`
}

type wireRect struct {
	Type   string    `json:"type"`
	Corner wirePoint `json:"corner"`
	Size   wirePoint `json:"size"`
	wireMeta
}

type wireEllipse struct {
	Type   string    `json:"type"`
	Center wirePoint `json:"center"`
	Size   wirePoint `json:"size"`
	wireMeta
}

type wirePointList struct {
	Type   string      `json:"type"`
	Points []wirePoint `json:"points"`
	wireMeta
}

type wireBrush struct {
	Type             string        `json:"type"`
	PositivePolygons [][]wirePoint `json:"positivePolygons"`
	NegativePolygons [][]wirePoint `json:"negativePolygons"`
	wireMeta
}

// What we read entries into. Numbers are read as floats so "12.5" from other producers is
// accepted as well as "12"
type readPoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type readLabel struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	FontSize   int     `json:"fontSize"`
	Text       string  `json:"label"`
	WhenToShow string  `json:"whenToShow"`
}

type readEntry struct {
	Type             *string       `json:"type"`
	X                *float64      `json:"x"`
	Y                *float64      `json:"y"`
	Center           *readPoint    `json:"center"`
	Corner           *readPoint    `json:"corner"`
	Size             *readPoint    `json:"size"`
	Points           []readPoint   `json:"points"`
	PositivePolygons [][]readPoint `json:"positivePolygons"`
	NegativePolygons [][]readPoint `json:"negativePolygons"`
	Name             string        `json:"name"`
	Color            string        `json:"color"`
	Label            *readLabel    `json:"label"`
}
