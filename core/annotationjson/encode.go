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
	"encoding/json"
	"fmt"

	"github.com/slidescore/slidebridge/core/geometry"
)

// Encode - shapes to the wire JSON array. Empty input gives "[]".
func Encode(shapes []geometry.Shape, opts EncodeOptions) (string, error) {
	annotations := make([]Annotation, 0, len(shapes))
	for _, s := range shapes {
		annotations = append(annotations, Annotation{Shape: s})
	}
	return EncodeAnnotations(annotations, opts)
}

// EncodeAnnotations - as Encode, but each shape may carry a label, name and colour. Per
// annotation name/colour take precedence over opts. Composite regions all end up in one
// brush entry at the end, which takes the metadata of the first composite carrying any.
func EncodeAnnotations(annotations []Annotation, opts EncodeOptions) (string, error) {
	entries := []interface{}{}

	brushRegions := []geometry.CompositeRegion{}
	var brushMeta *wireMeta

	for c, anno := range annotations {
		if anno.Shape == nil {
			return "", fmt.Errorf("annotation %v has no shape", c)
		}

		// Hole containment isn't checked here, readers of the brush deal with it
		if anno.Shape.Kind() != geometry.KindCompositeRegion {
			if err := anno.Shape.Validate(); err != nil {
				return "", fmt.Errorf("annotation %v: %v", c, err)
			}
		}

		meta := makeMeta(anno, opts)

		switch s := anno.Shape.(type) {
		case geometry.Point:
			entries = append(entries, makePointMarker(s, meta))
		case geometry.Points:
			for _, pt := range s.Points {
				entries = append(entries, makePointMarker(pt, meta))
			}
		case geometry.Rectangle:
			entries = append(entries, wireRect{Type: typeRect, Corner: toWire(s.Corner), Size: toWire(s.Size), wireMeta: meta})
		case geometry.Ellipse:
			entries = append(entries, wireEllipse{Type: typeEllipse, Center: toWire(s.Center), Size: toWire(s.Radii), wireMeta: meta})
		case geometry.Polygon:
			entries = append(entries, wirePointList{Type: typePolygon, Points: toWireList(s.Points), wireMeta: meta})
		case geometry.Polyline:
			entries = append(entries, wirePointList{Type: typePolyline, Points: toWireList(s.Points), wireMeta: meta})
		case geometry.CompositeRegion:
			brushRegions = append(brushRegions, s)
			if brushMeta == nil && (meta.Label != nil || len(meta.Name) > 0 || len(meta.Color) > 0) {
				m := meta
				brushMeta = &m
			}
		default:
			return "", fmt.Errorf("annotation %v: unsupported shape kind: %v", c, anno.Shape.Kind())
		}
	}

	if len(brushRegions) > 0 {
		merged := geometry.Merge(brushRegions...)
		brush := wireBrush{
			Type:             typeBrush,
			PositivePolygons: toWireRings(merged.Positive),
			NegativePolygons: toWireRings(merged.Negative),
		}
		if brushMeta != nil {
			brush.wireMeta = *brushMeta
		} else {
			brush.wireMeta = makeMeta(Annotation{}, opts)
		}
		entries = append(entries, brush)
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func makePointMarker(pt geometry.Point, meta wireMeta) wireEllipse {
	return wireEllipse{
		Type:     typeEllipse,
		Center:   toWire(pt),
		Size:     wirePoint{X: PointMarkerRadius, Y: PointMarkerRadius},
		wireMeta: meta,
	}
}

func makeMeta(anno Annotation, opts EncodeOptions) wireMeta {
	meta := wireMeta{}

	if len(anno.Name) > 0 {
		meta.Name = anno.Name
	} else if opts.Name != nil {
		meta.Name = *opts.Name
	}

	if anno.Color != nil {
		meta.Color = FormatColor(*anno.Color)
	} else if opts.Color != nil {
		meta.Color = FormatColor(*opts.Color)
	}

	if anno.Label != nil {
		pos := toWire(anno.Label.Position)
		meta.Label = &wireLabel{
			X:          pos.X,
			Y:          pos.Y,
			FontSize:   anno.Label.FontSize,
			Text:       anno.Label.Text,
			WhenToShow: string(anno.Label.Visibility),
		}
	}

	return meta
}

// Conversion to int truncates toward zero, which is what the server expects
func toWire(pt geometry.Point) wirePoint {
	return wirePoint{X: int(pt.X), Y: int(pt.Y)}
}

func toWireList(pts []geometry.Point) []wirePoint {
	result := make([]wirePoint, 0, len(pts))
	for _, pt := range pts {
		result = append(result, toWire(pt))
	}
	return result
}

func toWireRings(rings []geometry.Ring) [][]wirePoint {
	result := make([][]wirePoint, 0, len(rings))
	for _, ring := range rings {
		result = append(result, toWireList(ring))
	}
	return result
}
