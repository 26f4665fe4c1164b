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

package slidescore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/slidescore/slidebridge/core/errorwithstatus"
	"github.com/slidescore/slidebridge/core/tmagrid"
)

// SlideMetadata - the slide's SlideScoreMetadata.json
type SlideMetadata struct {
	FileName         string
	Level0Width      int
	Level0Height     int
	Level0TileWidth  int
	Level0TileHeight int
	LevelCount       int
	LevelWidths      []int
	LevelHeights     []int
	MppX             float64
	MppY             float64
	ObjectivePower   float64
	BackgroundColor  string
}

// GetMetadata - reads the slide metadata. A 503 means the server can't open the slide, after
// which the client reports ErrSlideUnavailable without asking again.
func (c *Client) GetMetadata(ctx context.Context) (*SlideMetadata, error) {
	if c.Unavailable() {
		return nil, ErrSlideUnavailable
	}

	body, err := c.get(ctx, "slide metadata", c.slideURL.String())
	if err != nil {
		var statusErr errorwithstatus.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusServiceUnavailable {
			c.markUnavailable()
			c.log.Errorf("Slide %v is unavailable: %v", c.slideURL, err)
			return nil, fmt.Errorf("%w: %v", ErrSlideUnavailable, err)
		}
		return nil, err
	}

	meta, err := ParseMetadata(body)
	if err != nil {
		return nil, err
	}

	c.log.Infof("Opened slide %v (%vx%v, %v levels)", meta.FileName, meta.Level0Width, meta.Level0Height, meta.LevelCount)
	return meta, nil
}

// ParseMetadata - parses and sanity checks metadata JSON
func ParseMetadata(data []byte) (*SlideMetadata, error) {
	meta := &SlideMetadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("parsing of metadata failed: %v", err)
	}

	if meta.Level0Width <= 0 || meta.Level0Height <= 0 {
		return nil, fmt.Errorf("metadata has invalid level 0 size: %vx%v", meta.Level0Width, meta.Level0Height)
	}
	if len(meta.LevelWidths) < meta.LevelCount || len(meta.LevelHeights) < meta.LevelCount {
		return nil, fmt.Errorf("metadata lists %v levels but only %v widths and %v heights", meta.LevelCount, len(meta.LevelWidths), len(meta.LevelHeights))
	}
	return meta, nil
}

// MicronsPerPixel - average of the X and Y pixel sizes, or whichever is known. 0 if neither.
func (m *SlideMetadata) MicronsPerPixel() float64 {
	if m.MppX > 0 && m.MppY > 0 {
		return (m.MppX + m.MppY) / 2
	}
	if m.MppX > 0 {
		return m.MppX
	}
	if m.MppY > 0 {
		return m.MppY
	}
	return 0
}

// Dimensions - what the TMA grid transform needs to know about the slide
func (m *SlideMetadata) Dimensions() tmagrid.SlideDimensions {
	return tmagrid.SlideDimensions{
		Width:           m.Level0Width,
		Height:          m.Level0Height,
		MicronsPerPixel: m.MicronsPerPixel(),
	}
}

// Background - background colour as 0xRRGGBB. Accepts it with or without a leading #.
func (m *SlideMetadata) Background() (int, bool) {
	bg := strings.TrimPrefix(strings.TrimSpace(m.BackgroundColor), "#")
	if len(bg) <= 0 {
		return 0, false
	}
	v, err := strconv.ParseUint(bg, 16, 32)
	if err != nil || v > 0xffffff {
		return 0, false
	}
	return int(v), true
}
