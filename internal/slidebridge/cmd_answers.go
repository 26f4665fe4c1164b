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
	"github.com/slidescore/slidebridge/core/answers"
	"github.com/slidescore/slidebridge/core/export"
	"github.com/spf13/cobra"
)

func newImportAnswersCmd(a *app) *cobra.Command {
	var question string
	var email string
	var setNames bool
	var doExport bool
	var outPath string
	var listEmails bool

	cmd := &cobra.Command{
		Use:   "import-answers",
		Short: "Download annotation answers",
		Long: `Fetches answers for the slide, optionally filtered by --question and --email, and
converts the annotation ones. The result is written as annotation JSON to --out (stdout by
default), or stored as an export with --export.

--list-emails only prints who answered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}

			all, err := c.GetAnswers(cmd.Context(), question, email)
			if err != nil {
				return err
			}

			if listEmails {
				for _, e := range answers.UniqueEmails(all) {
					a.printf(cmd, "%v\n", e)
				}
				return nil
			}

			imp := answers.NewImporter(a.log)
			result, err := imp.Import(all, answers.ImportOptions{Question: question, Email: email, SetNames: setNames})
			if err != nil {
				return err
			}

			if doExport {
				slideID, err := c.SlideID()
				if err != nil {
					return err
				}
				exp, err := a.exporter()
				if err != nil {
					return err
				}
				m, err := exp.Export(export.Manifest{
					SlideID:     slideID,
					SlideURL:    c.SlideURL(),
					Question:    question,
					Email:       email,
					AnswerCount: result.Imported,
				}, result.Annotations)
				if err != nil {
					return err
				}
				a.printf(cmd, "Imported %v answers (%v annotations), skipped %v, export id: %v\n", result.Imported, len(result.Annotations), result.Skipped, m.ID)
				return nil
			}

			encoded, err := annotationjson.EncodeAnnotations(result.Annotations, annotationjson.EncodeOptions{})
			if err != nil {
				return err
			}

			if len(outPath) > 0 {
				if err := os.WriteFile(outPath, []byte(encoded), 0644); err != nil {
					return err
				}
				a.printf(cmd, "Imported %v answers (%v annotations), skipped %v, written to %v\n", result.Imported, len(result.Annotations), result.Skipped, outPath)
				return nil
			}

			a.printf(cmd, "%v\n", encoded)
			return nil
		},
	}

	cmd.Flags().StringVar(&question, "question", "", "Only answers to this question")
	cmd.Flags().StringVar(&email, "email", "", "Only answers by this user")
	cmd.Flags().BoolVar(&setNames, "names", false, "Name annotations \"<question> by <email>\"")
	cmd.Flags().BoolVar(&doExport, "export", false, "Store as an export instead of printing")
	cmd.Flags().StringVar(&outPath, "out", "", "Write annotation JSON to this file")
	cmd.Flags().BoolVar(&listEmails, "list-emails", false, "Only list the users who answered")
	return cmd
}
