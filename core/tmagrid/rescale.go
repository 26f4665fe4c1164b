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

package tmagrid

import (
	"fmt"

	"github.com/slidescore/slidebridge/core/utils"
)

// SlideDimensions - level 0 size of the slide, and microns per pixel (0 if unknown)
type SlideDimensions struct {
	Width           int
	Height          int
	MicronsPerPixel float64
}

// PlacedCore - a core in level 0 pixel coordinates
type PlacedCore struct {
	Row     int
	Col     int
	Name    string
	X       int
	Y       int
	Missing bool
}

// Layout - the grid ready to be placed on the slide
type Layout struct {
	Rows           int
	Cols           int
	Rotate         int
	CoreDiameterPx int
	Cores          []PlacedCore
}

// Fraction of the larger slide dimension used as core diameter when no radius is known
const defaultCoreDiameterFraction = 0.02

// Rescale - converts core positions to pixels. Positions come x1000 and normalised so the slide
// width is 1, which for tall slides means both axes scale by width/height. Results are truncated
// to whole pixels.
func Rescale(grid Grid, dims SlideDimensions) (Layout, error) {
	if dims.Width <= 0 || dims.Height <= 0 {
		return Layout{}, fmt.Errorf("invalid slide dimensions: %vx%v", dims.Width, dims.Height)
	}

	maxpx := utils.Max(dims.Width, dims.Height)

	result := Layout{
		Rows:           grid.Rows,
		Cols:           grid.Cols,
		Rotate:         grid.Rotate,
		CoreDiameterPx: CoreDiameter(grid.CoreRadiusUM, dims),
		Cores:          make([]PlacedCore, 0, len(grid.Cores)),
	}

	scale := 1000.0 * float64(dims.Width) / float64(maxpx)
	for _, core := range grid.Cores {
		x := int(float64(core.X) / scale)
		y := int(float64(core.Y) / scale)
		result.Cores = append(result.Cores, PlacedCore{
			Row:     core.Row,
			Col:     core.Col,
			Name:    core.Name,
			X:       x,
			Y:       y,
			Missing: x <= 0,
		})
	}

	return result, nil
}

// CoreDiameter - diameter in pixels from the core radius in microns, or 2% of the larger slide
// dimension if either the radius or pixel size is not known
func CoreDiameter(radiusUM float64, dims SlideDimensions) int {
	if radiusUM > 0 && dims.MicronsPerPixel > 0 {
		return 2 * int(radiusUM/dims.MicronsPerPixel)
	}

	maxpx := utils.Max(dims.Width, dims.Height)
	return 2 * int(defaultCoreDiameterFraction*float64(maxpx))
}

// Apply - rotate then rescale
func Apply(spec GridSpec, dims SlideDimensions) (Layout, error) {
	grid, err := Rotate(spec)
	if err != nil {
		return Layout{}, err
	}
	return Rescale(grid, dims)
}

// OriginalPosition - where the core at row/col of this layout was in the grid the server sent
func (l Layout) OriginalPosition(row int, col int) (int, int, error) {
	return OriginalPosition(l.Rotate, l.Rows, l.Cols, row, col)
}

// Core - the core at row/col, false if outside the grid
func (l Layout) Core(row int, col int) (PlacedCore, bool) {
	if row < 0 || col < 0 || row >= l.Rows || col >= l.Cols {
		return PlacedCore{}, false
	}
	idx := row*l.Cols + col
	if idx >= len(l.Cores) {
		return PlacedCore{}, false
	}
	return l.Cores[idx], true
}
