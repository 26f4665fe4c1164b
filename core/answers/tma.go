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

package answers

import (
	"fmt"
	"strings"

	"github.com/slidescore/slidebridge/core/tmagrid"
)

// CoreAnswerFunc - answer JSON for a core, empty if it has none
type CoreAnswerFunc func(core tmagrid.PlacedCore) (string, error)

// FormatTMAAnswer - one answer covering the whole grid. Each core with an answer contributes
// "\n<row>,<col>\n<answer>", where row/col are the core's position as the server sent the grid,
// undoing the rotation applied when laying it out.
func FormatTMAAnswer(layout tmagrid.Layout, answerFor CoreAnswerFunc) (string, error) {
	var sb strings.Builder
	sb.WriteString(TMAAnswerPrefix)

	for r := 0; r < layout.Rows; r++ {
		for c := 0; c < layout.Cols; c++ {
			core, ok := layout.Core(r, c)
			if !ok {
				return "", fmt.Errorf("%w: no core at %v,%v", tmagrid.ErrInvalidGridShape, r, c)
			}

			answer, err := answerFor(core)
			if err != nil {
				return "", fmt.Errorf("failed to get answer for core %v: %v", core.Name, err)
			}
			answer = strings.TrimSpace(answer)
			if len(answer) <= 0 || answer == "[]" {
				continue
			}

			origRow, origCol, err := layout.OriginalPosition(r, c)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "\n%v,%v\n%v", origRow, origCol, answer)
		}
	}

	return sb.String(), nil
}
