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

import "github.com/slidescore/slidebridge/core/geometry"

// CollapsePointMarkers - turns each run of consecutive 10x10 ellipses back into a Points
// shape. This is a guess: a real ellipse that happens to have 10x10 radii looks exactly like
// a point marker on the wire, so it will be collapsed too.
func CollapsePointMarkers(shapes []geometry.Shape) []geometry.Shape {
	result := []geometry.Shape{}
	var run []geometry.Point

	flush := func() {
		if len(run) > 0 {
			result = append(result, geometry.Points{Points: run})
			run = nil
		}
	}

	for _, s := range shapes {
		if e, ok := s.(geometry.Ellipse); ok && isPointMarker(e) {
			run = append(run, e.Center)
			continue
		}
		flush()
		result = append(result, s)
	}
	flush()

	return result
}

func isPointMarker(e geometry.Ellipse) bool {
	return e.Radii.X == PointMarkerRadius && e.Radii.Y == PointMarkerRadius
}
