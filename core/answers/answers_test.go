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
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/slidescore/slidebridge/core/annotationjson"
	"github.com/slidescore/slidebridge/core/chunkupload"
	"github.com/slidescore/slidebridge/core/geometry"
	"github.com/slidescore/slidebridge/core/logger"
	"github.com/slidescore/slidebridge/core/slidescore"
	"github.com/slidescore/slidebridge/core/sstestlib"
	"github.com/slidescore/slidebridge/core/tmagrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type printPoster struct{}

func (p *printPoster) PostAnswer(ctx context.Context, question string, answer string) error {
	fmt.Printf("inline: %v (%v bytes)\n", question, len(answer))
	return nil
}

// Fails the first interruptions uploads with TransferInterruptedError
type fakeUploader struct {
	interruptions int
	opened        int
	uploads       int
	abandoned     int
	lastTMACore   int
	payload       []byte
}

func (f *fakeUploader) Open(ctx context.Context, question string, tmaCoreID int) (*chunkupload.Session, error) {
	f.opened++
	f.lastTMACore = tmaCoreID
	return &chunkupload.Session{State: chunkupload.SessionOpened, Question: question, TMACoreID: tmaCoreID}, nil
}

func (f *fakeUploader) Upload(ctx context.Context, s *chunkupload.Session, payload []byte) error {
	f.uploads++
	f.payload = payload
	if f.interruptions > 0 {
		f.interruptions--
		s.State = chunkupload.Uploading
		return &chunkupload.TransferInterruptedError{Err: errors.New("connection reset")}
	}
	s.State = chunkupload.Completed
	return nil
}

func (f *fakeUploader) Abandon(s *chunkupload.Session) {
	f.abandoned++
	s.State = chunkupload.Failed
}

func Example_submitRouting() {
	up := &fakeUploader{}
	r := NewRouter(&printPoster{}, up, nil)
	r.InlineLimit = 20

	ctx := context.Background()
	fmt.Println(r.Submit(ctx, "Grade", strings.Repeat("a", 20), 0))
	fmt.Println(r.Submit(ctx, "Tumour", strings.Repeat("a", 21), 5))
	fmt.Println(r.Submit(ctx, "Cores", TMAAnswerPrefix+strings.Repeat("a", 50), 0))
	fmt.Printf("opened: %v, core: %v\n", up.opened, up.lastTMACore)

	// Output:
	// inline: Grade (20 bytes)
	// inline <nil>
	// chunked <nil>
	// inline: Cores (55 bytes)
	// inline <nil>
	// opened: 1, core: 5
}

func Test_submitResumesInterruptedUpload(t *testing.T) {
	up := &fakeUploader{interruptions: 2}
	r := NewRouter(&printPoster{}, up, nil)
	r.InlineLimit = 10

	route, err := r.Submit(context.Background(), "Q", strings.Repeat("x", 11), 0)
	require.NoError(t, err)
	assert.Equal(t, RouteChunked, route)
	assert.Equal(t, 1, up.opened)
	assert.Equal(t, 3, up.uploads)
	assert.Equal(t, 0, up.abandoned)
}

func Test_submitGivesUpAfterResumeAttempts(t *testing.T) {
	up := &fakeUploader{interruptions: 10}
	r := NewRouter(&printPoster{}, up, nil)
	r.InlineLimit = 10
	r.ResumeAttempts = 1

	_, err := r.Submit(context.Background(), "Q", strings.Repeat("x", 11), 0)
	var interrupted *chunkupload.TransferInterruptedError
	assert.True(t, errors.As(err, &interrupted))
	assert.Equal(t, 2, up.uploads)
	assert.Equal(t, 1, up.abandoned)
}

func Test_submitWithoutUploader(t *testing.T) {
	r := NewRouter(&printPoster{}, nil, nil)
	r.InlineLimit = 1

	_, err := r.Submit(context.Background(), "Q", "too long", 0)
	assert.EqualError(t, err, "answer for question \"Q\" is 8 bytes but chunked upload is not available")
}

func Example_submitShapes() {
	r := NewRouter(&printPoster{}, &fakeUploader{}, nil)

	_, err := r.SubmitShapes(context.Background(), "Q", []geometry.Shape{
		geometry.Points{Points: []geometry.Point{{X: 1, Y: 1}}},
		geometry.Rectangle{Size: geometry.Point{X: 1, Y: 1}},
	}, annotationjson.EncodeOptions{})
	fmt.Println(errors.Is(err, ErrMixedPointsAndShapes))

	fmt.Println(r.SubmitShapes(context.Background(), "Q", []geometry.Shape{
		geometry.Points{Points: []geometry.Point{{X: 1, Y: 1}}},
		geometry.Point{X: 5, Y: 5},
	}, annotationjson.EncodeOptions{}))

	fmt.Println(r.SubmitShapes(context.Background(), "Q", []geometry.Shape{geometry.Polygon{}}, annotationjson.EncodeOptions{}))

	// Output:
	// true
	// inline: Q (131 bytes)
	// inline <nil>
	// inline annotation 0: polygon: shape has no points
}

func Example_formatTMAAnswer() {
	spec := tmagrid.GridSpec{Rotate: 90, Cores: []tmagrid.Core{}}
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			spec.Cores = append(spec.Cores, tmagrid.Core{Row: r, Col: c, Name: fmt.Sprintf("%c%v", 'A'+r, c+1), X: 1000, Y: 1000})
		}
	}
	layout, err := tmagrid.Apply(spec, tmagrid.SlideDimensions{Width: 100, Height: 100})
	fmt.Println(err)

	perCore := map[string]string{
		"A3": `[{"x":1,"y":1}]`,
		"B2": `[]`,
		"A1": ` [{"x":2,"y":2}] `,
	}
	answer, err := FormatTMAAnswer(layout, func(core tmagrid.PlacedCore) (string, error) {
		return perCore[core.Name], nil
	})
	fmt.Println(err)
	fmt.Println(answer)
	fmt.Println(IsTMAAnswer(answer))

	_, err = FormatTMAAnswer(layout, func(core tmagrid.PlacedCore) (string, error) {
		return "", errors.New("no data")
	})
	fmt.Println(err)

	// Output:
	// <nil>
	// <nil>
	// TMAs:
	// 0,2
	// [{"x":1,"y":1}]
	// 0,0
	// [{"x":2,"y":2}]
	// true
	// failed to get answer for core A3: no data
}

func Example_uniqueEmails() {
	fmt.Println(UniqueEmails([]slidescore.Answer{
		{Email: "zed@example.com"},
		{Email: "ann@example.com"},
		{Email: "zed@example.com"},
	}))

	// Output:
	// [ann@example.com zed@example.com]
}

func Test_import(t *testing.T) {
	red := 0xff0000
	answers := []slidescore.Answer{
		{Question: "Tumour", Email: "ann@example.com", Value: `[{"type":"rect","corner":{"x":1,"y":2},"size":{"x":3,"y":4},"color":"#00ff00"},{"type":"arrow","center":[1,2],"size":5}]`, Color: &red},
		{Question: "Tumour", Email: "bob@example.com", Value: `[{"x":5,"y":6},{"x":7,"y":8}]`},
		{Question: "Grade", Email: "ann@example.com", Value: "3"},
		{Question: "Other", Email: "ann@example.com", Value: `[{"type":"polyline","points":[{"x":1,"y":1}]}]`},
	}

	log := &logger.CaptureLogger{}
	imp := NewImporter(log)

	result, err := imp.Import(answers, ImportOptions{SetNames: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Annotations, 3)

	assert.Equal(t, "Tumour by ann@example.com", result.Annotations[0].Name)
	assert.Equal(t, red, *result.Annotations[0].Color)
	assert.Equal(t, geometry.Points{Points: []geometry.Point{{X: 5, Y: 6}, {X: 7, Y: 8}}}, result.Annotations[1].Shape)
	assert.Nil(t, result.Annotations[1].Color)
	assert.Contains(t, log.Lines(), "WARN: Answer to \"Tumour\" by ann@example.com: unknown annotation type \"arrow\" in entry 1")

	result, err = imp.Import(answers, ImportOptions{Question: "tumour", Email: "BOB@example.com"})
	require.NoError(t, err)
	require.Len(t, result.Annotations, 1)
	assert.Equal(t, "", result.Annotations[0].Name)
}

func Test_importMalformed(t *testing.T) {
	imp := NewImporter(nil)
	_, err := imp.Import([]slidescore.Answer{{Question: "Q", Email: "e", Value: `[{"type":"rect"}]`}}, ImportOptions{})
	assert.True(t, errors.Is(err, annotationjson.ErrMalformedPayload))
}

func Test_routerAgainstServer(t *testing.T) {
	srv := sstestlib.NewFakeServer()
	defer srv.Close()

	c, err := slidescore.NewClient(srv.SlideURL(), slidescore.ClientOptions{}, nil)
	require.NoError(t, err)
	up, err := c.NewUploader(chunkupload.Config{TempDir: t.TempDir(), ChunkSize: 64 * 1024})
	require.NoError(t, err)

	r := NewRouter(c, up, nil)
	ctx := context.Background()

	pts := []geometry.Point{}
	for i := 0; i < 10000; i++ {
		pts = append(pts, geometry.Point{X: float64(i), Y: float64(i % 100)})
	}

	route, err := r.SubmitShapes(ctx, "Tumour", []geometry.Shape{geometry.Polyline{Points: pts}}, annotationjson.EncodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, RouteChunked, route)

	route, err = r.Submit(ctx, "Cores", TMAAnswerPrefix+"\n0,0\n"+strings.Repeat(" ", DefaultInlineLimit), 0)
	require.NoError(t, err)
	assert.Equal(t, RouteInline, route)

	route, err = r.Submit(ctx, "Grade", "3", 0)
	require.NoError(t, err)
	assert.Equal(t, RouteInline, route)

	records := srv.FinishedRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "Tumour", records[0].Question)
	assert.Equal(t, "", records[0].TMACoreID)

	posted := srv.PostedAnswers()
	require.Len(t, posted, 2)
	assert.Equal(t, "Cores", posted[0].Question)
	assert.Equal(t, "3", posted[1].Answer)
}
