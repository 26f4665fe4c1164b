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

package main

import (
	"os"

	"github.com/slidescore/slidebridge/core/annotationjson"
	"github.com/slidescore/slidebridge/core/timestamper"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Manage stored exports of the slide's annotations",
		Long: `Exports are created by import-answers --export and stored under ExportBucket (S3) or
ExportRoot (a local directory, or an s3://bucket/prefix url).`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List exports of the slide, oldest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				slideID, err := a.slideID()
				if err != nil {
					return err
				}
				exp, err := a.exporter()
				if err != nil {
					return err
				}

				list, err := exp.List(slideID)
				if err != nil {
					return err
				}
				for _, m := range list {
					a.printf(cmd, "%v\t%v\t%v annotations\tquestion=%v\temail=%v\n", m.ID, timestamper.FormatUTC(m.CreatedUnixSec), m.AnnotationCount, m.Question, m.Email)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print the annotation JSON of an export",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				decoded, err := a.loadExport(args[0])
				if err != nil {
					return err
				}
				encoded, err := annotationjson.EncodeAnnotations(decoded.Annotations, annotationjson.EncodeOptions{})
				if err != nil {
					return err
				}
				a.printf(cmd, "%v\n", encoded)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete an export",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				slideID, err := a.slideID()
				if err != nil {
					return err
				}
				exp, err := a.exporter()
				if err != nil {
					return err
				}
				if err := exp.Remove(slideID, args[0]); err != nil {
					return err
				}
				a.printf(cmd, "Removed export %v\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func newTileCmd(a *app) *cobra.Command {
	var level, x, y, width, height int
	var outPath string

	cmd := &cobra.Command{
		Use:   "tile",
		Short: "Download a raw JPEG tile of the slide",
		Long:  `Coordinates are in level 0 pixels. The tile bytes are written as-is to --out.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}

			data, err := c.FetchTile(cmd.Context(), level, x, y, width, height)
			if err != nil {
				return err
			}

			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return err
			}
			a.printf(cmd, "Wrote %v bytes to %v\n", len(data), outPath)
			return nil
		},
	}

	cmd.Flags().IntVar(&level, "level", 0, "Pyramid level")
	cmd.Flags().IntVar(&x, "x", 0, "Left edge")
	cmd.Flags().IntVar(&y, "y", 0, "Top edge")
	cmd.Flags().IntVar(&width, "width", 512, "Width")
	cmd.Flags().IntVar(&height, "height", 512, "Height")
	cmd.Flags().StringVar(&outPath, "out", "tile.jpeg", "Where to write the tile")
	return cmd
}
