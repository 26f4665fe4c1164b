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
	"github.com/spf13/cobra"
)

func newQuestionsCmd(a *app) *cobra.Command {
	var annotationOnly bool
	var shapesOnly bool

	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List the questions asked about the slide",
		Long: `Prints one question per line as "name<TAB>type". Annotation questions have types
starting with Anno, questions answered with shapes (not points) have type AnnoShapes.
Questions listed in IgnoredQuestions are left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}

			questions, err := c.GetQuestions(cmd.Context())
			if err != nil {
				return err
			}

			for _, q := range questions {
				if annotationOnly && !q.IsAnnotation() {
					continue
				}
				if shapesOnly && !q.IsAnnotationShapes() {
					continue
				}
				if a.ignored(q.Name) {
					continue
				}
				a.printf(cmd, "%v\t%v\n", q.Name, q.Type)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&annotationOnly, "annotation", false, "Only annotation questions")
	cmd.Flags().BoolVar(&shapesOnly, "shapes", false, "Only questions answered with shapes")
	return cmd
}
