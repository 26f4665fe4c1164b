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

	"github.com/slidescore/slidebridge/core/annotationjson"
	"github.com/slidescore/slidebridge/core/logger"
	"github.com/slidescore/slidebridge/core/slidescore"
	"github.com/slidescore/slidebridge/core/utils"
)

type ImportOptions struct {
	// Empty means any question/email. Matched case insensitively.
	Question string
	Email    string
	// Name each annotation "<question> by <email>"
	SetNames bool
}

// ImportResult - annotations read from answers. Skipped counts answers that weren't annotations.
type ImportResult struct {
	Annotations []annotationjson.Annotation
	Imported    int
	Skipped     int
}

type Importer struct {
	log logger.ILogger
}

func NewImporter(log logger.ILogger) *Importer {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Importer{log: log}
}

// Import - decodes the answers holding annotation arrays. Answer colours override entry colours.
func (i *Importer) Import(answers []slidescore.Answer, opts ImportOptions) (ImportResult, error) {
	result := ImportResult{Annotations: []annotationjson.Annotation{}}

	for _, a := range answers {
		if len(opts.Question) > 0 && !strings.EqualFold(a.Question, opts.Question) {
			continue
		}
		if len(opts.Email) > 0 && !strings.EqualFold(a.Email, opts.Email) {
			continue
		}

		if !annotationjson.IsAnnotationArray(a.Value) {
			result.Skipped++
			continue
		}

		decoded, err := annotationjson.Decode([]byte(a.Value))
		if err != nil {
			return result, fmt.Errorf("parsing of answer to \"%v\" by %v failed: %w", a.Question, a.Email, err)
		}

		for _, w := range decoded.Warnings {
			i.log.Warnf("Answer to \"%v\" by %v: %v", a.Question, a.Email, w)
		}

		for _, anno := range decoded.Annotations {
			if opts.SetNames {
				anno.Name = AnswerName(a)
			}
			if a.Color != nil {
				clr := *a.Color
				anno.Color = &clr
			}
			result.Annotations = append(result.Annotations, anno)
		}
		result.Imported++
	}

	i.log.Infof("Imported %v annotation answers, %v annotations", result.Imported, len(result.Annotations))
	return result, nil
}

// AnswerName - name given to annotations imported from an answer
func AnswerName(a slidescore.Answer) string {
	return a.Question + " by " + a.Email
}

// UniqueEmails - sorted distinct emails of the answers, to pick whose answers to import
func UniqueEmails(answers []slidescore.Answer) []string {
	emails := map[string]bool{}
	for _, a := range answers {
		emails[a.Email] = true
	}
	return utils.GetSortedMapKeys(emails)
}
