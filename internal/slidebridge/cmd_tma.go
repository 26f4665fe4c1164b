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
	"os"
	"path/filepath"

	"github.com/slidescore/slidebridge/core/answers"
	"github.com/slidescore/slidebridge/core/fileaccess"
	"github.com/slidescore/slidebridge/core/tmagrid"
	"github.com/spf13/cobra"
)

func newImportTMACmd(a *app) *cobra.Command {
	var answersDir string
	var question string

	cmd := &cobra.Command{
		Use:   "import-tma",
		Short: "Show the TMA grid of the slide, optionally answering a question per core",
		Long: `Loads the TMA core positions, rotates the grid as configured on the server and prints
each core as "name<TAB>row,col<TAB>x,y" in slide pixels, with "missing" for cores not found.

With --answers-dir and --question, reads <core name>.json (annotation JSON) for each core from
the directory and submits them together as one TMA answer. Cores without a file are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(answersDir) > 0 && len(question) <= 0 {
				return errors.New("--question is required with --answers-dir")
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			layout, _, err := c.LoadTMALayout(cmd.Context())
			if err != nil {
				return err
			}

			a.printf(cmd, "%vx%v grid, rotated %v, core diameter %vpx\n", layout.Rows, layout.Cols, layout.Rotate, layout.CoreDiameterPx)
			for _, core := range layout.Cores {
				missing := ""
				if core.Missing {
					missing = "\tmissing"
				}
				a.printf(cmd, "%v\t%v,%v\t%v,%v%v\n", core.Name, core.Row, core.Col, core.X, core.Y, missing)
			}

			if len(answersDir) <= 0 {
				return nil
			}

			answer, err := answers.FormatTMAAnswer(layout, func(core tmagrid.PlacedCore) (string, error) {
				data, err := os.ReadFile(filepath.Join(answersDir, fileaccess.MakeValidObjectName(core.Name)+".json"))
				if err != nil {
					if errors.Is(err, os.ErrNotExist) {
						return "", nil
					}
					return "", err
				}
				return string(data), nil
			})
			if err != nil {
				return err
			}

			router, err := a.answerRouter(c)
			if err != nil {
				return err
			}
			route, err := router.Submit(cmd.Context(), question, answer, 0)
			if err != nil {
				return err
			}

			a.printf(cmd, "Uploaded TMA answer to \"%v\" (%v, %v bytes)\n", question, route, len(answer))
			return nil
		},
	}

	cmd.Flags().StringVar(&answersDir, "answers-dir", "", "Directory of per core annotation JSON files")
	cmd.Flags().StringVar(&question, "question", "", "Question to answer with the per core annotations")
	return cmd
}
