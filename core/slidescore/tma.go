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
	"fmt"
	"net/http"
	"strings"

	"github.com/slidescore/slidebridge/core/tmagrid"
	"golang.org/x/sync/errgroup"
)

func (c *Client) GetTMAPositions(ctx context.Context) (tmagrid.GridSpec, error) {
	body, err := c.get(ctx, "TMA positions", c.EndpointURL(EndpointTMAPositions))
	if err != nil {
		return tmagrid.GridSpec{}, err
	}
	return tmagrid.ParseGridJSON(body)
}

// LoadTMALayout - reads metadata and TMA positions together, and lays the cores out on the slide
func (c *Client) LoadTMALayout(ctx context.Context) (tmagrid.Layout, *SlideMetadata, error) {
	var meta *SlideMetadata
	var spec tmagrid.GridSpec

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meta, err = c.GetMetadata(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		spec, err = c.GetTMAPositions(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return tmagrid.Layout{}, nil, err
	}

	layout, err := tmagrid.Apply(spec, meta.Dimensions())
	if err != nil {
		return tmagrid.Layout{}, nil, err
	}

	c.log.Infof("Loaded %vx%v TMA grid (rotated %v), core diameter %vpx", layout.Rows, layout.Cols, layout.Rotate, layout.CoreDiameterPx)
	return layout, meta, nil
}

// TilePath - URL of a raw tile of the slide at the given level, in level 0 coordinates
func (c *Client) TilePath(level int, x int, y int, width int, height int) string {
	base := strings.Replace(c.slideURL.String(), metadataFile, "", 1)
	return fmt.Sprintf("%vraw/%v/%v_%v/%v_%v.jpeg", base, level, x, y, width, height)
}

// FetchTile - raw JPEG bytes of a tile, not decoded
func (c *Client) FetchTile(ctx context.Context, level int, x int, y int, width int, height int) ([]byte, error) {
	path := c.TilePath(level, x, y, width, height)
	c.tileRequestLogged.Do(func() {
		c.log.Infof("Requesting path %v", path)
	})

	body, err := c.get(ctx, "tile", path)
	if err != nil {
		return nil, err
	}
	if ct := http.DetectContentType(body); ct != "image/jpeg" {
		c.log.Debugf("Tile %v has content type %v", path, ct)
	}
	return body, nil
}
