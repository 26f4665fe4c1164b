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

import "fmt"

// CompositeRegion - area made of filled outlines (Positive) minus holes (Negative). The
// region covers everything inside any positive ring and outside every negative ring.
// Ring order carries no meaning.
type CompositeRegion struct {
	Positive []Ring
	Negative []Ring
}

// RegionPart - one outline with the holes cut out of it
type RegionPart struct {
	Outline Ring
	Holes   []Ring
}

// Validate - checks every hole sits inside at least one outline
func (c CompositeRegion) Validate() error {
	_, orphans := c.Parts()
	if len(orphans) > 0 {
		return fmt.Errorf("negative ring %v %v is not inside any positive ring", orphans[0], c.Negative[orphans[0]])
	}
	return nil
}

// Contains - is the point inside the region (union of outlines minus union of holes)
func (c CompositeRegion) Contains(p Point) bool {
	for _, neg := range c.Negative {
		if neg.Contains(p) {
			return false
		}
	}
	for _, pos := range c.Positive {
		if pos.Contains(p) {
			return true
		}
	}
	return false
}

// Parts - groups holes with the outline they're cut out of. A hole goes to the smallest
// outline containing it. Returns the indexes of holes that no outline contains.
func (c CompositeRegion) Parts() ([]RegionPart, []int) {
	parts := make([]RegionPart, len(c.Positive))
	for i, pos := range c.Positive {
		parts[i] = RegionPart{Outline: pos, Holes: []Ring{}}
	}

	orphans := []int{}
	for negIdx, neg := range c.Negative {
		bestIdx := -1
		bestArea := 0.0
		for posIdx, pos := range c.Positive {
			if !pos.ContainsRing(neg) {
				continue
			}
			area := pos.Area()
			if bestIdx < 0 || area < bestArea {
				bestIdx = posIdx
				bestArea = area
			}
		}

		if bestIdx < 0 {
			orphans = append(orphans, negIdx)
		} else {
			parts[bestIdx].Holes = append(parts[bestIdx].Holes, neg)
		}
	}

	return parts, orphans
}

// Area - filled area, summed per outline minus its holes. Overlapping outlines are
// counted twice.
func (c CompositeRegion) Area() float64 {
	parts, _ := c.Parts()
	total := 0.0
	for _, part := range parts {
		total += part.Outline.Area()
		for _, hole := range part.Holes {
			total -= hole.Area()
		}
	}
	return total
}

// Merge - one region holding all rings of the given ones, in order
func Merge(regions ...CompositeRegion) CompositeRegion {
	result := CompositeRegion{Positive: []Ring{}, Negative: []Ring{}}
	for _, r := range regions {
		result.Positive = append(result.Positive, r.Positive...)
		result.Negative = append(result.Negative, r.Negative...)
	}
	return result
}
