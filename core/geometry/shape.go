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

// Shape model shared by the annotation codec and the TMA grid transform. All shapes are
// plain values in image pixel space (sub-pixel float coordinates), safe to copy and share.
//
// Shape is a closed set: the only implementations are the types in this package, and code
// switching on Kind() is expected to handle every kind listed below.
package geometry

import (
	"errors"
	"fmt"
)

// ShapeKind - tag identifying which concrete shape a Shape is
type ShapeKind int

const (
	KindPoint ShapeKind = iota
	KindPoints
	KindRectangle
	KindEllipse
	KindPolygon
	KindPolyline
	KindCompositeRegion
)

var kindNames = map[ShapeKind]string{
	KindPoint:           "point",
	KindPoints:          "points",
	KindRectangle:       "rectangle",
	KindEllipse:         "ellipse",
	KindPolygon:         "polygon",
	KindPolyline:        "polyline",
	KindCompositeRegion: "composite",
}

func (k ShapeKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%v)", int(k))
}

// Shape - any of the shape values below
type Shape interface {
	Kind() ShapeKind
	Validate() error

	// Only types in this package can be shapes
	isShape()
}

var ErrNoPoints = errors.New("shape has no points")

// Point - single image-space position. On its own it's a point marker.
type Point struct {
	X float64
	Y float64
}

// Points - a collection of bare point markers that travel together
type Points struct {
	Points []Point
}

// Rectangle - axis aligned, Corner is the minimum x/y corner, Size is the full width/height
type Rectangle struct {
	Corner Point
	Size   Point
}

// Ellipse - axis aligned, Radii are half-width and half-height
type Ellipse struct {
	Center Point
	Radii  Point
}

// Polygon - closed outline, point order is significant
type Polygon struct {
	Points []Point
}

// Polyline - open line, point order is significant
type Polyline struct {
	Points []Point
}

func (Point) Kind() ShapeKind           { return KindPoint }
func (Points) Kind() ShapeKind          { return KindPoints }
func (Rectangle) Kind() ShapeKind       { return KindRectangle }
func (Ellipse) Kind() ShapeKind         { return KindEllipse }
func (Polygon) Kind() ShapeKind         { return KindPolygon }
func (Polyline) Kind() ShapeKind        { return KindPolyline }
func (CompositeRegion) Kind() ShapeKind { return KindCompositeRegion }

func (Point) isShape()           {}
func (Points) isShape()          {}
func (Rectangle) isShape()       {}
func (Ellipse) isShape()         {}
func (Polygon) isShape()         {}
func (Polyline) isShape()        {}
func (CompositeRegion) isShape() {}

func (p Point) Validate() error {
	return nil
}

func (p Points) Validate() error {
	if len(p.Points) <= 0 {
		return fmt.Errorf("points: %w", ErrNoPoints)
	}
	return nil
}

func (r Rectangle) Validate() error {
	if r.Size.X < 0 || r.Size.Y < 0 {
		return fmt.Errorf("rectangle has negative size: %vx%v", r.Size.X, r.Size.Y)
	}
	return nil
}

func (e Ellipse) Validate() error {
	if e.Radii.X < 0 || e.Radii.Y < 0 {
		return fmt.Errorf("ellipse has negative radius: %vx%v", e.Radii.X, e.Radii.Y)
	}
	return nil
}

func (p Polygon) Validate() error {
	if len(p.Points) <= 0 {
		return fmt.Errorf("polygon: %w", ErrNoPoints)
	}
	return nil
}

func (p Polyline) Validate() error {
	if len(p.Points) <= 0 {
		return fmt.Errorf("polyline: %w", ErrNoPoints)
	}
	return nil
}

// IsPointMarker - true for the shapes that are just bare point positions
func IsPointMarker(s Shape) bool {
	k := s.Kind()
	return k == KindPoint || k == KindPoints
}
