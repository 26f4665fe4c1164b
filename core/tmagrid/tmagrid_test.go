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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cores named by their original row-major index, with recognisable coordinates
func makeSpec(rows int, cols int, rotate int) GridSpec {
	spec := GridSpec{Rotate: rotate, Cores: []Core{}}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			idx := r*cols + c
			spec.Cores = append(spec.Cores, Core{Row: r, Col: c, Name: fmt.Sprintf("%v", idx), X: (idx + 1) * 1000, Y: (idx + 1) * 2000})
		}
	}
	return spec
}

func printGrid(g Grid, err error) {
	if err != nil {
		fmt.Printf("err: %v\n", err)
		return
	}
	fmt.Printf("%vx%v:", g.Rows, g.Cols)
	for _, c := range g.Cores {
		fmt.Printf(" %v@%v,%v", c.Name, c.Row, c.Col)
	}
	fmt.Println()
}

func Example_rotate() {
	for _, rot := range []int{0, 90, 180, 270} {
		printGrid(Rotate(makeSpec(2, 3, rot)))
	}

	// Output:
	// 2x3: 0@0,0 1@0,1 2@0,2 3@1,0 4@1,1 5@1,2
	// 3x2: 2@0,0 5@0,1 1@1,0 4@1,1 0@2,0 3@2,1
	// 2x3: 5@0,0 4@0,1 3@0,2 2@1,0 1@1,1 0@1,2
	// 3x2: 3@0,0 0@0,1 4@1,0 1@1,1 5@2,0 2@2,1
}

func Example_rotateDoesNotModifyInput() {
	spec := makeSpec(2, 2, 90)
	_, err := Rotate(spec)
	fmt.Printf("%v %v@%v,%v\n", err, spec.Cores[0].Name, spec.Cores[0].Row, spec.Cores[0].Col)

	// Output:
	// <nil> 0@0,0
}

func Example_rotateInvalid() {
	spec := makeSpec(2, 3, 45)
	printGrid(Rotate(spec))

	spec = makeSpec(2, 3, 90)
	spec.Cores = spec.Cores[0:5]
	printGrid(Rotate(spec))

	spec = makeSpec(2, 2, 0)
	spec.Cores[1], spec.Cores[2] = spec.Cores[2], spec.Cores[1]
	printGrid(Rotate(spec))

	spec = makeSpec(1, 2, 0)
	spec.Cores[0].Col = -1
	_, err := Rotate(spec)
	fmt.Println(errors.Is(err, ErrInvalidGridShape))

	printGrid(Rotate(GridSpec{Rotate: 270, Cores: []Core{}}))

	// Output:
	// err: invalid TMA grid shape: unsupported rotation 45
	// err: invalid TMA grid shape: 5 cores don't fill a 2x3 grid
	// err: invalid TMA grid shape: core 1 is at 1,0, expected 0,1
	// true
	// 0x0:
}

func Example_rescale() {
	spec := GridSpec{
		Cores: []Core{
			{Row: 0, Col: 0, Name: "A", X: 500000, Y: 250000},
			{Row: 0, Col: 1, Name: "B", X: 0, Y: 0},
		},
	}

	l, err := Apply(spec, SlideDimensions{Width: 2000, Height: 1000})
	fmt.Printf("%v diameter: %v\n", err, l.CoreDiameterPx)
	for _, c := range l.Cores {
		fmt.Printf("%v: %v,%v missing: %v\n", c.Name, c.X, c.Y, c.Missing)
	}

	// Tall slide, both axes scale by width/height
	l, err = Apply(spec, SlideDimensions{Width: 1000, Height: 4000})
	fmt.Printf("%v diameter: %v %v,%v\n", err, l.CoreDiameterPx, l.Cores[0].X, l.Cores[0].Y)

	// Radius known
	spec.CoreRadiusUM = 300
	l, err = Apply(spec, SlideDimensions{Width: 2000, Height: 1000, MicronsPerPixel: 0.5})
	fmt.Printf("%v diameter: %v\n", err, l.CoreDiameterPx)

	_, err = Apply(spec, SlideDimensions{Width: 0, Height: 1000})
	fmt.Println(err)

	// Output:
	// <nil> diameter: 80
	// A: 500,250 missing: false
	// B: 0,0 missing: true
	// <nil> diameter: 160 2000,1000
	// <nil> diameter: 1200
	// invalid slide dimensions: 0x1000
}

func Example_parseGridJSON() {
	spec, err := ParseGridJSON([]byte(`{"coreRadiusUM": 250.5, "rotate": 90.0, "cores": [{"row":0,"col":0,"name":"A1","x":1000,"y":2000}]}`))
	fmt.Printf("%v %+v\n", err, spec)

	spec, err = ParseGridJSON([]byte(`{"coreRadiusUM": 0}`))
	fmt.Printf("%v %+v\n", err, spec)

	_, err = ParseGridJSON([]byte(`{"rotate": 90.5}`))
	fmt.Println(err)

	_, err = ParseGridJSON([]byte(`[]`))
	fmt.Println(err != nil)

	// Output:
	// <nil> {CoreRadiusUM:250.5 Rotate:90 Cores:[{Row:0 Col:0 Name:A1 X:1000 Y:2000}]}
	// <nil> {CoreRadiusUM:0 Rotate:0 Cores:[]}
	// invalid TMA grid shape: rotation must be whole degrees, got 90.5
	// true
}

func Example_originalPosition() {
	l, _ := Apply(makeSpec(2, 3, 90), SlideDimensions{Width: 100, Height: 100})
	core, ok := l.Core(0, 0)
	fmt.Println(core.Name, ok)
	fmt.Println(l.OriginalPosition(0, 0))
	fmt.Println(l.OriginalPosition(3, 0))
	fmt.Println(OriginalPosition(45, 2, 2, 0, 0))

	_, ok = l.Core(0, 2)
	fmt.Println(ok)

	// Output:
	// 2 true
	// 0 2 <nil>
	// 0 0 invalid TMA grid shape: 3,0 outside 3x2 grid
	// 0 0 invalid TMA grid shape: unsupported rotation 45
	// false
}

func Test_originalPositionInvertsRotate(t *testing.T) {
	sizes := [][2]int{{1, 1}, {1, 4}, {2, 3}, {3, 2}, {3, 3}, {4, 5}}
	for _, rot := range allowedRotations {
		for _, size := range sizes {
			spec := makeSpec(size[0], size[1], rot)
			grid, err := Rotate(spec)
			require.NoError(t, err)

			if rot == 90 || rot == 270 {
				assert.Equal(t, size[1], grid.Rows)
				assert.Equal(t, size[0], grid.Cols)
			} else {
				assert.Equal(t, size[0], grid.Rows)
				assert.Equal(t, size[1], grid.Cols)
			}

			for c, core := range grid.Cores {
				require.Equal(t, c/grid.Cols, core.Row)
				require.Equal(t, c%grid.Cols, core.Col)

				origRow, origCol, err := OriginalPosition(rot, grid.Rows, grid.Cols, core.Row, core.Col)
				require.NoError(t, err)

				orig := spec.Cores[origRow*size[1]+origCol]
				assert.Equal(t, orig.Name, core.Name, "rotation %v, grid %vx%v, cell %v,%v", rot, size[0], size[1], core.Row, core.Col)
				assert.Equal(t, orig.X, core.X)
			}
		}
	}
}
