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

// TMA (tissue microarray) core grids as supplied by the slide server, and the transform that
// lays them out on the slide: rotation of the row-major core order by 0/90/180/270 degrees,
// then rescaling of core positions to level 0 pixel space.
package tmagrid

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGridShape - cores don't form a fully populated, row-major rectangular grid
var ErrInvalidGridShape = errors.New("invalid TMA grid shape")

// Core - one core position. X/Y are fixed point (x1000) and aspect normalised as they come from
// the server. A core with X <= 0 is a placeholder for a missing core.
type Core struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// GridSpec - the TMA positions document. CoreRadiusUM <= 0 means not set.
type GridSpec struct {
	CoreRadiusUM float64 `json:"coreRadiusUM"`
	Rotate       int     `json:"rotate"`
	Cores        []Core  `json:"cores"`
}

// Grid - cores after rotation, row-major with Rows x Cols cells
type Grid struct {
	Rows         int
	Cols         int
	Rotate       int
	CoreRadiusUM float64
	Cores        []Core
}

var allowedRotations = []int{0, 90, 180, 270}

type wireGridSpec struct {
	CoreRadiusUM float64 `json:"coreRadiusUM"`
	Rotate       float64 `json:"rotate"`
	Cores        []Core  `json:"cores"`
}

// ParseGridJSON - reads {"coreRadiusUM":..,"rotate":..,"cores":[...]}. Rotation may be sent as
// 90 or 90.0, but must be a whole number.
func ParseGridJSON(data []byte) (GridSpec, error) {
	wire := wireGridSpec{}
	if err := json.Unmarshal(data, &wire); err != nil {
		return GridSpec{}, fmt.Errorf("failed to parse TMA positions: %v", err)
	}

	if wire.Rotate != math.Trunc(wire.Rotate) {
		return GridSpec{}, fmt.Errorf("%w: rotation must be whole degrees, got %v", ErrInvalidGridShape, wire.Rotate)
	}

	spec := GridSpec{
		CoreRadiusUM: wire.CoreRadiusUM,
		Rotate:       int(wire.Rotate),
		Cores:        wire.Cores,
	}
	if spec.Cores == nil {
		spec.Cores = []Core{}
	}
	return spec, nil
}

// Dimensions - row and column count implied by the largest row/col index seen. 0,0 for no cores.
func Dimensions(cores []Core) (int, int) {
	if len(cores) <= 0 {
		return 0, 0
	}

	maxRow := 0
	maxCol := 0
	for _, c := range cores {
		if c.Row > maxRow {
			maxRow = c.Row
		}
		if c.Col > maxCol {
			maxCol = c.Col
		}
	}
	return maxRow + 1, maxCol + 1
}

// Validate - checks the rotation is supported and the cores fill a rectangular grid, listed
// row by row
func (s GridSpec) Validate() error {
	if !isAllowedRotation(s.Rotate) {
		return fmt.Errorf("%w: unsupported rotation %v", ErrInvalidGridShape, s.Rotate)
	}

	rows, cols := Dimensions(s.Cores)
	if len(s.Cores) != rows*cols {
		return fmt.Errorf("%w: %v cores don't fill a %vx%v grid", ErrInvalidGridShape, len(s.Cores), rows, cols)
	}

	for c, core := range s.Cores {
		if core.Row < 0 || core.Col < 0 {
			return fmt.Errorf("%w: core %v has negative row/col: %v,%v", ErrInvalidGridShape, c, core.Row, core.Col)
		}
		if core.Row != c/cols || core.Col != c%cols {
			return fmt.Errorf("%w: core %v is at %v,%v, expected %v,%v", ErrInvalidGridShape, c, core.Row, core.Col, c/cols, c%cols)
		}
	}

	return nil
}

func isAllowedRotation(rotate int) bool {
	for _, r := range allowedRotations {
		if r == rotate {
			return true
		}
	}
	return false
}
