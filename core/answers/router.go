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

// Sending answers to the slide server and reading annotation answers back. Answers small enough
// go inline in one request, larger ones through a chunked upload.
package answers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slidescore/slidebridge/core/annotationjson"
	"github.com/slidescore/slidebridge/core/chunkupload"
	"github.com/slidescore/slidebridge/core/geometry"
	"github.com/slidescore/slidebridge/core/logger"
)

// DefaultInlineLimit - answers longer than this many bytes are uploaded in chunks
const DefaultInlineLimit = 100000

// TMAAnswerPrefix - answers for a whole TMA grid start with this, and always go inline
const TMAAnswerPrefix = "TMAs:"

var ErrMixedPointsAndShapes = errors.New("cannot upload points annotations and other types together, upload the points separately")

// Route - how an answer was sent
type Route int

const (
	RouteInline Route = iota
	RouteChunked
)

func (r Route) String() string {
	if r == RouteChunked {
		return "chunked"
	}
	return "inline"
}

// AnswerPoster - sends an answer in a single request
type AnswerPoster interface {
	PostAnswer(ctx context.Context, question string, answer string) error
}

// LargeUploader - the chunked upload protocol, as implemented by chunkupload.Uploader
type LargeUploader interface {
	Open(ctx context.Context, question string, tmaCoreID int) (*chunkupload.Session, error)
	Upload(ctx context.Context, s *chunkupload.Session, payload []byte) error
	Abandon(s *chunkupload.Session)
}

type Router struct {
	poster   AnswerPoster
	uploader LargeUploader
	log      logger.ILogger

	// Answers longer than this are uploaded in chunks
	InlineLimit int
	// How many times an interrupted chunked upload is resumed before giving up
	ResumeAttempts int
}

func NewRouter(poster AnswerPoster, uploader LargeUploader, log logger.ILogger) *Router {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Router{
		poster:         poster,
		uploader:       uploader,
		log:            log,
		InlineLimit:    DefaultInlineLimit,
		ResumeAttempts: 2,
	}
}

// IsTMAAnswer - answer covering every core of a TMA grid
func IsTMAAnswer(answer string) bool {
	return strings.HasPrefix(answer, TMAAnswerPrefix)
}

// Submit - sends an answer, inline or as a chunked upload depending on size. Whole grid TMA
// answers always go inline. tmaCoreID (<= 0 for none) is only sent with chunked uploads, small
// per core answers need to be sent as a TMA answer (see FormatTMAAnswer).
func (r *Router) Submit(ctx context.Context, question string, answer string, tmaCoreID int) (Route, error) {
	if len(answer) > r.InlineLimit && !IsTMAAnswer(answer) {
		return RouteChunked, r.submitChunked(ctx, question, answer, tmaCoreID)
	}

	if err := r.poster.PostAnswer(ctx, question, answer); err != nil {
		return RouteInline, err
	}
	return RouteInline, nil
}

func (r *Router) submitChunked(ctx context.Context, question string, answer string, tmaCoreID int) error {
	if r.uploader == nil {
		return fmt.Errorf("answer for question \"%v\" is %v bytes but chunked upload is not available", question, len(answer))
	}

	s, err := r.uploader.Open(ctx, question, tmaCoreID)
	if err != nil {
		return err
	}

	payload := []byte(answer)
	for attempt := 0; ; attempt++ {
		err = r.uploader.Upload(ctx, s, payload)

		var interrupted *chunkupload.TransferInterruptedError
		if err == nil || !errors.As(err, &interrupted) || !interrupted.Retryable() || attempt >= r.ResumeAttempts || ctx.Err() != nil {
			break
		}
		r.log.Infof("Resuming upload for question \"%v\" (attempt %v of %v)", question, attempt+1, r.ResumeAttempts)
	}

	if err != nil {
		r.uploader.Abandon(s)
		return err
	}

	r.log.Infof("Uploaded %v byte answer for question \"%v\" in chunks", len(answer), question)
	return nil
}

// SubmitShapes - encodes shapes and submits them as the answer. Point markers can't be sent
// together with other shapes.
func (r *Router) SubmitShapes(ctx context.Context, question string, shapes []geometry.Shape, opts annotationjson.EncodeOptions) (Route, error) {
	if err := CheckNotMixed(shapes); err != nil {
		return RouteInline, err
	}

	encoded, err := annotationjson.Encode(shapes, opts)
	if err != nil {
		return RouteInline, err
	}
	return r.Submit(ctx, question, encoded, 0)
}

// CheckNotMixed - error if shapes has both point markers and other shapes
func CheckNotMixed(shapes []geometry.Shape) error {
	hasPoints := false
	hasOthers := false
	for _, s := range shapes {
		if geometry.IsPointMarker(s) {
			hasPoints = true
		} else {
			hasOthers = true
		}
	}

	if hasPoints && hasOthers {
		return ErrMixedPointsAndShapes
	}
	return nil
}
