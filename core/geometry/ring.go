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

package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Ring - closed outline used by composite regions. May or may not repeat the first point
// at the end, both are treated the same.
type Ring []Point

func (r Ring) toOrb() orb.Ring {
	result := make(orb.Ring, 0, len(r)+1)
	for _, p := range r {
		result = append(result, orb.Point{p.X, p.Y})
	}
	if len(result) > 0 && result[0] != result[len(result)-1] {
		result = append(result, result[0])
	}
	return result
}

// Bounds - min and max corners of the ring. Zero values for an empty ring.
func (r Ring) Bounds() (Point, Point) {
	if len(r) <= 0 {
		return Point{}, Point{}
	}

	b := r.toOrb().Bound()
	return Point{X: b.Min[0], Y: b.Min[1]}, Point{X: b.Max[0], Y: b.Max[1]}
}

// Area - absolute area enclosed, independent of winding
func (r Ring) Area() float64 {
	if len(r) < 3 {
		return 0
	}
	return math.Abs(planar.Area(r.toOrb()))
}

// Contains - is the point inside the ring. Points on an edge count as inside, a ring
// with fewer than 3 points contains nothing.
func (r Ring) Contains(p Point) bool {
	if len(r) < 3 {
		return false
	}
	return planar.RingContains(r.toOrb(), orb.Point{p.X, p.Y})
}

// ContainsRing - every vertex of other is inside r. Good enough for deciding which
// outline a hole belongs to, as holes don't cross their outline.
func (r Ring) ContainsRing(other Ring) bool {
	if len(other) <= 0 || len(r) < 3 {
		return false
	}

	outline := r.toOrb()
	for _, p := range other {
		if !planar.RingContains(outline, orb.Point{p.X, p.Y}) {
			return false
		}
	}
	return true
}
