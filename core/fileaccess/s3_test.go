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

package fileaccess

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/slidescore/slidebridge/core/awsutil"
)

func Example_s3ListingWithContinuation() {
	const bucket = "slidebridge-exports"
	const listPath = "exports/"

	var mockS3 awsutil.MockS3Client
	defer mockS3.FinishTest()

	mockS3.ExpListObjectsV2Input = []s3.ListObjectsV2Input{
		{
			Bucket: aws.String(bucket), Prefix: aws.String(listPath),
		},
		{
			Bucket: aws.String(bucket), Prefix: aws.String(listPath), ContinuationToken: aws.String("cont-1"),
		},
	}
	mockS3.QueuedListObjectsV2Output = []*s3.ListObjectsV2Output{
		{
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("cont-1"),
			Contents: []*s3.Object{
				{Key: aws.String("exports/42/abc/manifest.json")},
				{Key: aws.String("exports/42/")},
				{Key: aws.String("exports/42/abc/annotations.json")},
			},
		},
		{
			IsTruncated: aws.Bool(false),
			Contents: []*s3.Object{
				{Key: aws.String("exports/43/def/manifest.json")},
			},
		},
	}

	fs := MakeS3Access(&mockS3)
	list, err := fs.ListObjects(bucket, listPath)
	fmt.Printf("%v, list: %v\n", err, list)

	// Output:
	// <nil>, list: [exports/42/abc/manifest.json exports/42/abc/annotations.json exports/43/def/manifest.json]
}

func Example_s3ReadWrite() {
	const bucket = "slidebridge-exports"

	var mockS3 awsutil.MockS3Client
	defer mockS3.FinishTest()

	mockS3.ExpPutObjectInput = []s3.PutObjectInput{
		{
			Bucket: aws.String(bucket), Key: aws.String("the-files/pretty.json"), Body: bytes.NewReader([]byte(`{
    "name": "Hello",
    "value": 778,
    "description": "World"
}`)),
		},
	}
	mockS3.QueuedPutObjectOutput = []*s3.PutObjectOutput{{}}

	mockS3.ExpHeadObjectInput = []s3.HeadObjectInput{
		{Bucket: aws.String(bucket), Key: aws.String("the-files/pretty.json")},
		{Bucket: aws.String(bucket), Key: aws.String("the-files/missing.json")},
	}
	mockS3.QueuedHeadObjectOutput = []*s3.HeadObjectOutput{{}, nil}

	mockS3.ExpGetObjectInput = []s3.GetObjectInput{
		{Bucket: aws.String(bucket), Key: aws.String("the-files/pretty.json")},
		{Bucket: aws.String(bucket), Key: aws.String("the-files/missing.json")},
		{Bucket: aws.String(bucket), Key: aws.String("the-files/missing.json")},
	}
	mockS3.QueuedGetObjectOutput = []*s3.GetObjectOutput{
		{Body: io.NopCloser(bytes.NewReader([]byte(`{"name":"Hello","value":778,"description":"World"}`)))},
		nil,
		nil,
	}

	mockS3.ExpDeleteObjectInput = []s3.DeleteObjectInput{
		{Bucket: aws.String(bucket), Key: aws.String("the-files/pretty.json")},
	}
	mockS3.QueuedDeleteObjectOutput = []*s3.DeleteObjectOutput{{}}

	fs := MakeS3Access(&mockS3)

	fmt.Printf("JSON: %v\n", fs.WriteJSON(bucket, "the-files/pretty.json", testData{Name: "Hello", Value: 778, Description: "World"}))
	fmt.Println(fs.ObjectExists(bucket, "the-files/pretty.json"))
	fmt.Println(fs.ObjectExists(bucket, "the-files/missing.json"))

	var contents testData
	err := fs.ReadJSON(bucket, "the-files/pretty.json", &contents, false)
	fmt.Printf("Read JSON: %v, %v\n", err, contents)

	err = fs.ReadJSON(bucket, "the-files/missing.json", &contents, false)
	fmt.Printf("Read bad path, got not found error: %v\n", fs.IsNotFoundError(err))

	err = fs.ReadJSON(bucket, "the-files/missing.json", &contents, true)
	fmt.Printf("Read bad path, empty if not found: %v\n", err)

	fmt.Printf("Delete: %v\n", fs.DeleteObject(bucket, "the-files/pretty.json"))

	// Output:
	// JSON: <nil>
	// true <nil>
	// false <nil>
	// Read JSON: <nil>, {Hello 778 World}
	// Read bad path, got not found error: true
	// Read bad path, empty if not found: <nil>
	// Delete: <nil>
}

func Example_s3UnexpectedPut() {
	var mockS3 awsutil.MockS3Client

	mockS3.ExpPutObjectInput = []s3.PutObjectInput{
		{Bucket: aws.String("bucket"), Key: aws.String("a.json"), Body: bytes.NewReader([]byte("line1\nline2"))},
	}
	mockS3.QueuedPutObjectOutput = []*s3.PutObjectOutput{{}}

	fs := MakeS3Access(&mockS3)
	fmt.Println(fs.WriteObject("bucket", "a.json", []byte("line1\nline3")))
	fmt.Println(fs.WriteObject("bucket", "b.json", []byte("line1")))

	// Output:
	// failed to write s3://bucket/a.json: Incorrect input in PutObject - body
	// line 2
	// expected: "line2"
	// S3 recvd: "line3"
	// failed to write s3://bucket/b.json: No more inputs expected for PutObject
}
