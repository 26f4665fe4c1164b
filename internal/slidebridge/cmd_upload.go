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
	"errors"
	"io"
	"os"

	"github.com/slidescore/slidebridge/core/annotationjson"
	"github.com/slidescore/slidebridge/core/answers"
	"github.com/spf13/cobra"
)

func newUploadCmd(a *app) *cobra.Command {
	var question string
	var tmaCoreID int
	var exportID string
	var name string
	var color string

	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload annotations as the answer to a question",
		Long: `Reads an annotation JSON array from file (or stdin if file is - or missing), or from an
earlier export with --export-id, and submits it as the answer to --question. Answers over
InlineAnswerLimit bytes go through a chunked resumable upload.

Point annotations and shapes can't be mixed in one answer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(question) <= 0 {
				return errors.New("--question is required")
			}

			opts := annotationjson.EncodeOptions{}
			if len(name) > 0 {
				opts.Name = &name
			}
			if len(color) > 0 {
				clr, ok := annotationjson.ParseColor(color)
				if !ok {
					return errors.New("--color must be #rrggbb")
				}
				opts.Color = &clr
			}

			var decoded *annotationjson.Decoded
			var err error
			if len(exportID) > 0 {
				decoded, err = a.loadExport(exportID)
			} else {
				decoded, err = readAnnotationFile(cmd, args)
			}
			if err != nil {
				return err
			}

			for _, w := range decoded.Warnings {
				a.log.Warnf("Skipping annotation: %v", w)
			}

			// 10x10 ellipses are how points come back from the wire
			if err := answers.CheckNotMixed(annotationjson.CollapsePointMarkers(decoded.Shapes())); err != nil {
				return err
			}

			encoded, err := annotationjson.EncodeAnnotations(decoded.Annotations, opts)
			if err != nil {
				return err
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			router, err := a.answerRouter(c)
			if err != nil {
				return err
			}

			route, err := router.Submit(cmd.Context(), question, encoded, tmaCoreID)
			if err != nil {
				return err
			}

			a.printf(cmd, "Uploaded %v annotations to \"%v\" (%v, %v bytes)\n", len(decoded.Annotations), question, route, len(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&question, "question", "", "Question to answer")
	cmd.Flags().IntVar(&tmaCoreID, "tma-core", 0, "TMA core id the answer is for, sent with chunked uploads")
	cmd.Flags().StringVar(&exportID, "export-id", "", "Upload a previous export of this slide instead of a file")
	cmd.Flags().StringVar(&name, "name", "", "Name for annotations that don't have one")
	cmd.Flags().StringVar(&color, "color", "", "Colour (#rrggbb) for annotations that don't have one")
	return cmd
}

func readAnnotationFile(cmd *cobra.Command, args []string) (*annotationjson.Decoded, error) {
	var data []byte
	var err error

	if len(args) <= 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, err
	}

	return annotationjson.Decode(data)
}

func (a *app) loadExport(exportID string) (*annotationjson.Decoded, error) {
	slideID, err := a.slideID()
	if err != nil {
		return nil, err
	}
	exp, err := a.exporter()
	if err != nil {
		return nil, err
	}

	_, decoded, err := exp.Load(slideID, exportID)
	return decoded, err
}
