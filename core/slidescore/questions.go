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
	"strings"

	"github.com/slidescore/slidebridge/core/annotationjson"
	"github.com/slidescore/slidebridge/core/utils"
)

// Question - a question on the slide's study, from "name;type" lines
type Question struct {
	Name string
	Type string
}

// IsAnnotation - questions whose answers are annotations of some kind
func (q Question) IsAnnotation() bool {
	return strings.HasPrefix(q.Type, "Anno")
}

// IsAnnotationShapes - questions answered with shape annotations (not points)
func (q Question) IsAnnotationShapes() bool {
	return q.Type == "AnnoShapes"
}

// Answer - one answer line, "question;email;value;#rrggbb"
type Answer struct {
	Question string
	Email    string
	Value    string
	// nil if the line had no colour
	Color *int
}

func ParseQuestions(body string) []Question {
	result := []Question{}
	for _, line := range utils.SplitNonEmptyLines(body) {
		parts := strings.SplitN(line, ";", 2)
		q := Question{Name: parts[0]}
		if len(parts) > 1 {
			q.Type = parts[1]
		}
		result = append(result, q)
	}
	return result
}

// ParseAnswers - reads answer lines, keeping those matching question and email (case insensitive,
// empty matches anything). Values may contain ';' themselves, so the colour is only taken from
// the last field if it starts with #.
func ParseAnswers(body string, question string, email string) []Answer {
	result := []Answer{}
	for _, line := range utils.SplitNonEmptyLines(body) {
		parts := strings.SplitN(line, ";", 3)

		a := Answer{Question: parts[0]}
		if len(parts) > 1 {
			a.Email = parts[1]
		}
		if len(parts) > 2 {
			a.Value = parts[2]
			if idx := strings.LastIndex(a.Value, ";"); idx >= 0 {
				if clr, ok := annotationjson.ParseColor(a.Value[idx+1:]); ok && strings.HasPrefix(a.Value[idx+1:], "#") {
					a.Color = &clr
					a.Value = a.Value[0:idx]
				}
			}
		}

		if len(question) > 0 && !strings.EqualFold(a.Question, question) {
			continue
		}
		if len(email) > 0 && !strings.EqualFold(a.Email, email) {
			continue
		}
		result = append(result, a)
	}
	return result
}

func (c *Client) GetQuestions(ctx context.Context) ([]Question, error) {
	body, err := c.get(ctx, "questions", c.EndpointURL(EndpointQuestions))
	if err != nil {
		return nil, err
	}
	return ParseQuestions(string(body)), nil
}

// AnnotationQuestions - names of questions answered with any kind of annotation
func (c *Client) AnnotationQuestions(ctx context.Context) ([]string, error) {
	return c.questionNames(ctx, Question.IsAnnotation)
}

// AnnotationShapeQuestions - names of questions answered with shapes
func (c *Client) AnnotationShapeQuestions(ctx context.Context) ([]string, error) {
	return c.questionNames(ctx, Question.IsAnnotationShapes)
}

func (c *Client) questionNames(ctx context.Context, include func(Question) bool) ([]string, error) {
	qs, err := c.GetQuestions(ctx)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, q := range qs {
		if include(q) {
			names = append(names, q.Name)
		}
	}
	return names, nil
}

// GetAnswers - answers on the slide, optionally filtered by question and email
func (c *Client) GetAnswers(ctx context.Context, question string, email string) ([]Answer, error) {
	body, err := c.get(ctx, "answers", c.EndpointURL(EndpointAnswers))
	if err != nil {
		return nil, err
	}
	return ParseAnswers(string(body), question, email), nil
}
