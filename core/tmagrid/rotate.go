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

import "fmt"

// Rotate - reorders the cores for the grid rotation. For 90 and 270 the grid is transposed in
// shape, so Rows and Cols swap. Cores are given their new row/col. The input is not modified.
func Rotate(spec GridSpec) (Grid, error) {
	if err := spec.Validate(); err != nil {
		return Grid{}, err
	}

	maxRow, maxCol := Dimensions(spec.Cores)
	count := len(spec.Cores)
	cores := make([]Core, count)

	if spec.Rotate == 0 {
		copy(cores, spec.Cores)
	} else {
		for i := 0; i < maxRow; i++ {
			for j := 0; j < maxCol; j++ {
				dst := j*maxRow + i
				switch spec.Rotate {
				case 90:
					cores[dst] = spec.Cores[i*maxCol+(maxCol-j-1)]
				case 180:
					cores[dst] = spec.Cores[count-1-dst]
				case 270:
					cores[dst] = spec.Cores[(maxRow-i-1)*maxCol+j]
				}
			}
		}

		if spec.Rotate == 90 || spec.Rotate == 270 {
			maxRow, maxCol = maxCol, maxRow
		}

		for c := range cores {
			cores[c].Row = c / maxCol
			cores[c].Col = c % maxCol
		}
	}

	return Grid{
		Rows:         maxRow,
		Cols:         maxCol,
		Rotate:       spec.Rotate,
		CoreRadiusUM: spec.CoreRadiusUM,
		Cores:        cores,
	}, nil
}

// OriginalPosition - maps a row/col in a rotated grid of rows x cols back to where that core was
// in the grid as the server sent it. This is the position answers for a core are reported at.
func OriginalPosition(rotate int, rows int, cols int, row int, col int) (int, int, error) {
	if row < 0 || col < 0 || row >= rows || col >= cols {
		return 0, 0, fmt.Errorf("%w: %v,%v outside %vx%v grid", ErrInvalidGridShape, row, col, rows, cols)
	}

	switch rotate {
	case 0:
		return row, col, nil
	case 90:
		return col, rows - row - 1, nil
	case 180:
		return rows - row - 1, cols - col - 1, nil
	case 270:
		return cols - col - 1, row, nil
	}

	return 0, 0, fmt.Errorf("%w: unsupported rotation %v", ErrInvalidGridShape, rotate)
}
