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

package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/slidescore/slidebridge/core/annotationjson"
	"github.com/slidescore/slidebridge/core/awsutil"
	"github.com/slidescore/slidebridge/core/fileaccess"
	"github.com/slidescore/slidebridge/core/geometry"
	"github.com/slidescore/slidebridge/core/idgen"
	"github.com/slidescore/slidebridge/core/logger"
	"github.com/slidescore/slidebridge/core/timestamper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Example_exportToS3() {
	var mockS3 awsutil.MockS3Client
	defer mockS3.FinishTest()

	mockS3.ExpPutObjectInput = []s3.PutObjectInput{
		{
			Bucket: aws.String("exports-bucket"), Key: aws.String("slidebridge/42/exp1/annotations.json"),
			Body: bytes.NewReader([]byte(`[[{"type":"rect","corner":{"x":1,"y":2},"size":{"x":3,"y":4}}]]`)),
		},
		{
			Bucket: aws.String("exports-bucket"), Key: aws.String("slidebridge/42/exp1/manifest.json"),
			Body: bytes.NewReader([]byte(`{
    "id": "exp1",
    "slideId": "42",
    "slideUrl": "https://slidescore.example.com/i/42/tok/SlideScoreMetadata.json",
    "question": "Tumour",
    "answerCount": 1,
    "annotationCount": 1,
    "createdUnixSec": 1700000000,
    "created": "2023-11-14T22:13:20Z"
}`)),
		},
	}
	mockS3.QueuedPutObjectOutput = []*s3.PutObjectOutput{{}, {}}

	exp := NewExporter(
		fileaccess.MakeS3Access(&mockS3),
		"exports-bucket",
		"/slidebridge/",
		&idgen.MockIDGenerator{IDs: []string{"exp1"}},
		&timestamper.MockTimeNowStamper{QueuedTimeStamps: []int64{1700000000}},
		nil,
	)

	m, err := exp.Export(Manifest{
		SlideID:     "42",
		SlideURL:    "https://slidescore.example.com/i/42/tok/SlideScoreMetadata.json",
		Question:    "Tumour",
		AnswerCount: 1,
	}, []annotationjson.Annotation{
		{Shape: geometry.Rectangle{Corner: geometry.Point{X: 1, Y: 2}, Size: geometry.Point{X: 3, Y: 4}}},
	})
	fmt.Printf("%v|%v|%v\n", err, m.ID, m.Created)

	// Output:
	// <nil>|exp1|2023-11-14T22:13:20Z
}

func Example_exportNoSlide() {
	exp := NewExporter(&fileaccess.FSAccess{}, os.TempDir(), "", &idgen.MockIDGenerator{}, &timestamper.MockTimeNowStamper{}, nil)
	_, err := exp.Export(Manifest{}, nil)
	fmt.Println(err)

	// Output:
	// export requires a slide id
}

func Test_exportLocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	log := &logger.CaptureLogger{}

	exp := NewExporter(
		&fileaccess.FSAccess{},
		dir,
		"exports",
		&idgen.MockIDGenerator{IDs: []string{"exp2", "exp1"}},
		&timestamper.MockTimeNowStamper{QueuedTimeStamps: []int64{1700000100, 1700000000}},
		log,
	)

	green := 0x00ff00
	annos := []annotationjson.Annotation{
		{
			Shape: geometry.Rectangle{Corner: geometry.Point{X: 10, Y: 20}, Size: geometry.Point{X: 30, Y: 40}},
			Name:  "Tumour by ann@example.com",
			Color: &green,
		},
		{Shape: geometry.Polygon{Points: []geometry.Point{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}}}},
	}

	_, err := exp.Export(Manifest{SlideID: "42", AnswerCount: 2}, annos)
	require.NoError(t, err)
	_, err = exp.Export(Manifest{SlideID: "42", AnswerCount: 1}, annos[1:])
	require.NoError(t, err)

	// Another slide, not in the listing
	_, err = exp.Export(Manifest{SlideID: "7"}, nil)
	require.NoError(t, err)

	list, err := exp.List("42")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "exp1", list[0].ID)
	assert.Equal(t, 1, list[0].AnnotationCount)
	assert.Equal(t, "exp2", list[1].ID)
	assert.Equal(t, 2, list[1].AnnotationCount)

	m, decoded, err := exp.Load("42", "exp2")
	require.NoError(t, err)
	assert.Equal(t, 2, m.AnswerCount)
	assert.Equal(t, annos[0].Shape, decoded.Annotations[0].Shape)
	assert.Equal(t, "Tumour by ann@example.com", decoded.Annotations[0].Name)
	assert.Equal(t, green, *decoded.Annotations[0].Color)
	assert.Equal(t, annos[1].Shape, decoded.Annotations[1].Shape)

	require.NoError(t, exp.Remove("42", "exp2"))
	list, err = exp.List("42")
	require.NoError(t, err)
	require.Len(t, list, 1)

	err = exp.Remove("42", "exp2")
	assert.True(t, errors.Is(err, ErrExportNotFound))
	_, _, err = exp.Load("42", "exp2")
	assert.True(t, errors.Is(err, ErrExportNotFound))

	list, err = exp.List("no-such-slide")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Contains(t, log.Lines(), "INFO: Removed export exp2 of slide 42")
}

func Test_exportListSkipsBrokenManifest(t *testing.T) {
	dir := t.TempDir()
	fs := &fileaccess.FSAccess{}
	require.NoError(t, fs.WriteObject(dir, "42/broken/manifest.json", []byte("{not json")))

	log := &logger.CaptureLogger{}
	exp := NewExporter(fs, dir, "", &idgen.MockIDGenerator{}, &timestamper.MockTimeNowStamper{}, log)

	list, err := exp.List("42")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Len(t, log.Lines(), 1)
}

func Test_exportKeepsAnnotationsApart(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(&fileaccess.FSAccess{}, dir, "", &idgen.MockIDGenerator{IDs: []string{"exp1"}}, &timestamper.MockTimeNowStamper{QueuedTimeStamps: []int64{1700000000}}, nil)

	red := 0xff0000
	blue := 0x0000ff
	square := func(x float64) geometry.Ring {
		return geometry.Ring{{X: x, Y: 0}, {X: x + 10, Y: 0}, {X: x + 10, Y: 10}, {X: x, Y: 10}}
	}
	annos := []annotationjson.Annotation{
		{Shape: geometry.CompositeRegion{Positive: []geometry.Ring{square(0)}, Negative: []geometry.Ring{}}, Name: "Q by alice", Color: &red},
		{Shape: geometry.CompositeRegion{Positive: []geometry.Ring{square(100)}, Negative: []geometry.Ring{}}, Name: "Q by bob", Color: &blue},
		{Shape: geometry.Points{Points: []geometry.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}}, Name: "Q by carol"},
	}

	m, err := exp.Export(Manifest{SlideID: "42", AnswerCount: 3}, annos)
	require.NoError(t, err)
	assert.Equal(t, 3, m.AnnotationCount)

	_, decoded, err := exp.Load("42", "exp1")
	require.NoError(t, err)
	require.Len(t, decoded.Annotations, m.AnnotationCount)

	for c, anno := range annos {
		assert.Equal(t, anno.Name, decoded.Annotations[c].Name)
		assert.Equal(t, anno.Shape, decoded.Annotations[c].Shape)
	}
	assert.Equal(t, red, *decoded.Annotations[0].Color)
	assert.Equal(t, blue, *decoded.Annotations[1].Color)
	assert.Nil(t, decoded.Annotations[2].Color)
}
