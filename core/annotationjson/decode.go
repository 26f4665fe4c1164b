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

package annotationjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/slidescore/slidebridge/core/geometry"
)

// Decoded - result of decoding a payload. Warnings lists entries that were skipped.
type Decoded struct {
	Annotations []Annotation
	Warnings    []*UnknownShapeTypeError
}

// Shapes - just the shapes of the decoded annotations, in order
func (d *Decoded) Shapes() []geometry.Shape {
	result := make([]geometry.Shape, 0, len(d.Annotations))
	for _, a := range d.Annotations {
		result = append(result, a.Shape)
	}
	return result
}

// Decode - wire JSON array to annotations. Type names are matched case insensitively.
// An array whose first entry has no type is a bare list of {x,y} points, and decodes to
// one Points shape. Brush hole containment is not checked.
func Decode(data []byte) (*Decoded, error) {
	rawEntries := []json.RawMessage{}
	if err := json.Unmarshal(data, &rawEntries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if rawEntries == nil {
		// JSON null
		return nil, fmt.Errorf("%w: expected array", ErrMalformedPayload)
	}

	types := make([]*string, 0, len(rawEntries))
	for c, raw := range rawEntries {
		if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
			return nil, fmt.Errorf("%w: entry %v is not an object", ErrMalformedPayload, c)
		}

		// Only the type is read up front, unknown types may use known field names
		// with other layouts
		typed := struct {
			Type *string `json:"type"`
		}{}
		if err := json.Unmarshal(raw, &typed); err != nil {
			return nil, fmt.Errorf("%w: entry %v: %v", ErrMalformedPayload, c, err)
		}
		types = append(types, typed.Type)
	}

	result := &Decoded{Annotations: []Annotation{}, Warnings: []*UnknownShapeTypeError{}}
	if len(rawEntries) <= 0 {
		return result, nil
	}

	if types[0] == nil {
		entries := make([]readEntry, 0, len(rawEntries))
		for c, raw := range rawEntries {
			entry, err := readFullEntry(raw, c)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}

		anno, err := decodePointList(entries)
		if err != nil {
			return nil, err
		}
		result.Annotations = append(result.Annotations, anno)
		return result, nil
	}

	for c, raw := range rawEntries {
		if types[c] == nil {
			return nil, fmt.Errorf("%w: entry %v has no type", ErrMalformedPayload, c)
		}
		if !isKnownType(*types[c]) {
			result.Warnings = append(result.Warnings, &UnknownShapeTypeError{Type: *types[c], Index: c})
			continue
		}

		entry, err := readFullEntry(raw, c)
		if err != nil {
			return nil, err
		}

		shape, err := decodeShape(entry, c)
		if err != nil {
			return nil, err
		}
		result.Annotations = append(result.Annotations, makeAnnotation(shape, entry))
	}

	return result, nil
}

func readFullEntry(raw json.RawMessage, idx int) (readEntry, error) {
	entry := readEntry{}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return entry, fmt.Errorf("%w: entry %v: %v", ErrMalformedPayload, idx, err)
	}
	return entry, nil
}

func isKnownType(entryType string) bool {
	switch strings.ToLower(entryType) {
	case typeRect, typeEllipse, typePolygon, typePolyline, typeBrush:
		return true
	}
	return false
}

// Only called for known types, see isKnownType
func decodeShape(entry readEntry, idx int) (geometry.Shape, error) {
	entryType := strings.ToLower(*entry.Type)

	switch entryType {
	case typeRect:
		corner, err := requirePoint(entry.Corner, "corner", idx)
		if err != nil {
			return nil, err
		}
		size, err := requirePoint(entry.Size, "size", idx)
		if err != nil {
			return nil, err
		}
		return geometry.Rectangle{Corner: corner, Size: size}, nil

	case typeEllipse:
		center, err := requirePoint(entry.Center, "center", idx)
		if err != nil {
			return nil, err
		}
		radii, err := requirePoint(entry.Size, "size", idx)
		if err != nil {
			return nil, err
		}
		return geometry.Ellipse{Center: center, Radii: radii}, nil

	case typePolygon, typePolyline:
		if len(entry.Points) <= 0 {
			return nil, fmt.Errorf("%w: %v entry %v has no points", ErrMalformedPayload, entryType, idx)
		}
		pts, err := readPoints(entry.Points, idx)
		if err != nil {
			return nil, err
		}
		if entryType == typePolygon {
			return geometry.Polygon{Points: pts}, nil
		}
		return geometry.Polyline{Points: pts}, nil

	case typeBrush:
		if entry.PositivePolygons == nil {
			return nil, fmt.Errorf("%w: brush entry %v missing positivePolygons", ErrMalformedPayload, idx)
		}
		pos, err := readRings(entry.PositivePolygons, idx)
		if err != nil {
			return nil, err
		}
		neg, err := readRings(entry.NegativePolygons, idx)
		if err != nil {
			return nil, err
		}
		return geometry.CompositeRegion{Positive: pos, Negative: neg}, nil
	}

	return nil, fmt.Errorf("%w: entry %v has unsupported type %v", ErrMalformedPayload, idx, entryType)
}

func decodePointList(entries []readEntry) (Annotation, error) {
	pts := make([]geometry.Point, 0, len(entries))
	for c, entry := range entries {
		if entry.X == nil || entry.Y == nil {
			return Annotation{}, fmt.Errorf("%w: point entry %v missing x or y", ErrMalformedPayload, c)
		}
		pts = append(pts, geometry.Point{X: *entry.X, Y: *entry.Y})
	}
	return makeAnnotation(geometry.Points{Points: pts}, entries[0]), nil
}

func makeAnnotation(shape geometry.Shape, entry readEntry) Annotation {
	anno := Annotation{Shape: shape, Name: entry.Name}

	if clr, ok := ParseColor(entry.Color); ok {
		anno.Color = &clr
	}

	if entry.Label != nil {
		anno.Label = &Label{
			Position:   geometry.Point{X: entry.Label.X, Y: entry.Label.Y},
			FontSize:   entry.Label.FontSize,
			Text:       entry.Label.Text,
			Visibility: LabelVisibility(entry.Label.WhenToShow),
		}
	}
	return anno
}

func requirePoint(pt *readPoint, field string, idx int) (geometry.Point, error) {
	if pt == nil || pt.X == nil || pt.Y == nil {
		return geometry.Point{}, fmt.Errorf("%w: entry %v missing %v", ErrMalformedPayload, idx, field)
	}
	return geometry.Point{X: *pt.X, Y: *pt.Y}, nil
}

func readPoints(pts []readPoint, idx int) ([]geometry.Point, error) {
	result := make([]geometry.Point, 0, len(pts))
	for c := range pts {
		pt, err := requirePoint(&pts[c], fmt.Sprintf("point %v", c), idx)
		if err != nil {
			return nil, err
		}
		result = append(result, pt)
	}
	return result, nil
}

func readRings(rings [][]readPoint, idx int) ([]geometry.Ring, error) {
	result := make([]geometry.Ring, 0, len(rings))
	for _, ring := range rings {
		pts, err := readPoints(ring, idx)
		if err != nil {
			return nil, err
		}
		result = append(result, geometry.Ring(pts))
	}
	return result, nil
}

// FormatColor - 0xRRGGBB as "#rrggbb"
func FormatColor(rgb int) string {
	return fmt.Sprintf("#%06x", rgb&0xffffff)
}

// ParseColor - "#rrggbb" (or "rrggbb") to 0xRRGGBB. Returns false for anything else.
func ParseColor(s string) (int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// IsAnnotationArray - does an answer value look like an annotation JSON array rather than
// plain text
func IsAnnotationArray(value string) bool {
	value = strings.TrimSpace(value)
	return strings.HasPrefix(value, "[{") && strings.HasSuffix(value, "}]")
}
