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

package awsutil

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// MockS3Client - replays queued S3 responses, checking each request against the expected one.
// Call FinishTest() at the end of the test (defer it) to check every expected call was made.
// A nil queued output makes the call fail: GetObject/HeadObject with a not found error, the rest
// with a generic one.
type MockS3Client struct {
	mutex sync.Mutex

	s3iface.S3API

	ExpListObjectsV2Input []s3.ListObjectsV2Input
	ExpGetObjectInput     []s3.GetObjectInput
	ExpHeadObjectInput    []s3.HeadObjectInput
	ExpPutObjectInput     []s3.PutObjectInput
	ExpDeleteObjectInput  []s3.DeleteObjectInput

	QueuedListObjectsV2Output []*s3.ListObjectsV2Output
	QueuedGetObjectOutput     []*s3.GetObjectOutput
	QueuedHeadObjectOutput    []*s3.HeadObjectOutput
	QueuedPutObjectOutput     []*s3.PutObjectOutput
	QueuedDeleteObjectOutput  []*s3.DeleteObjectOutput
}

const ErrNoMoreInputsExpected = "No more inputs expected for "
const ErrWrongInput = "Incorrect input in "
const ErrNothingToReturn = "Nothing to return from "
const ErrReturningError = "Returning error from "

// FinishTest - returns (and prints, so example tests show it) the first expectation left unmet
func (m *MockS3Client) FinishTest() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	err := m.getFinishTestResult()
	if err != nil {
		fmt.Println(err)
	}
	return err
}

func (m *MockS3Client) getFinishTestResult() error {
	remaining := []struct {
		name     string
		expected int
		queued   int
	}{
		{"ListObjectsV2", len(m.ExpListObjectsV2Input), len(m.QueuedListObjectsV2Output)},
		{"GetObject", len(m.ExpGetObjectInput), len(m.QueuedGetObjectOutput)},
		{"HeadObject", len(m.ExpHeadObjectInput), len(m.QueuedHeadObjectOutput)},
		{"PutObject", len(m.ExpPutObjectInput), len(m.QueuedPutObjectOutput)},
		{"DeleteObject", len(m.ExpDeleteObjectInput), len(m.QueuedDeleteObjectOutput)},
	}

	for _, r := range remaining {
		if r.expected > 0 {
			return fmt.Errorf("Test expected more %v calls to func", r.name)
		}
		if r.queued > 0 {
			return fmt.Errorf("Remaining output %v for func", r.name)
		}
	}
	return nil
}

// Pops the next expected input, runs check on it, then pops the next queued output
func replay[I any, O any](name string, expected *[]I, queued *[]*O, check func(exp I) error, nilErr error) (*O, error) {
	if len(*expected) <= 0 {
		return nil, errors.New(ErrNoMoreInputsExpected + name)
	}

	exp := (*expected)[0]
	*expected = (*expected)[1:]

	if err := check(exp); err != nil {
		return nil, err
	}

	if len(*queued) <= 0 {
		return nil, errors.New(ErrNothingToReturn + name)
	}

	result := (*queued)[0]
	*queued = (*queued)[1:]

	if result == nil {
		if nilErr != nil {
			return nil, nilErr
		}
		return nil, errors.New(ErrReturningError + name)
	}
	return result, nil
}

// S3 input types all print themselves, so comparing the printed form compares every field
func sameString[I fmt.Stringer](name string, input I) func(exp I) error {
	return func(exp I) error {
		expStr := exp.String()
		inpStr := input.String()
		if expStr != inpStr {
			return fmt.Errorf("%v expected: \"%v\" S3 recvd: \"%v\"", ErrWrongInput+name, expStr, inpStr)
		}
		return nil
	}
}

func (m *MockS3Client) ListObjectsV2(input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	const name = "ListObjectsV2"
	return replay(name, &m.ExpListObjectsV2Input, &m.QueuedListObjectsV2Output, sameString(name, *input), nil)
}

func (m *MockS3Client) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	const name = "GetObject"
	return replay(name, &m.ExpGetObjectInput, &m.QueuedGetObjectOutput, sameString(name, *input), awserr.New(s3.ErrCodeNoSuchKey, ErrReturningError+name, nil))
}

func (m *MockS3Client) HeadObject(input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	const name = "HeadObject"
	return replay(name, &m.ExpHeadObjectInput, &m.QueuedHeadObjectOutput, sameString(name, *input), awserr.New("NotFound", ErrReturningError+name, nil))
}

func (m *MockS3Client) DeleteObject(input *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	const name = "DeleteObject"
	return replay(name, &m.ExpDeleteObjectInput, &m.QueuedDeleteObjectOutput, sameString(name, *input), nil)
}

// PutObject - bodies are compared line by line, the first differing line is reported
func (m *MockS3Client) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	const name = "PutObject"
	return replay(name, &m.ExpPutObjectInput, &m.QueuedPutObjectOutput, func(exp s3.PutObjectInput) error {
		if *input.Bucket != *exp.Bucket {
			return fmt.Errorf("%v%v - bucket\nexpected: \"%v\"\nS3 recvd: \"%v\"", ErrWrongInput, name, *exp.Bucket, *input.Bucket)
		}
		if *input.Key != *exp.Key {
			return fmt.Errorf("%v%v - key\nexpected: \"%v\"\nS3 recvd: \"%v\"", ErrWrongInput, name, *exp.Key, *input.Key)
		}
		return compareBodies(name, readAll(input.Body), readAll(exp.Body))
	}, nil)
}

func readAll(r io.Reader) string {
	if r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "ERROR GETTING DATA"
	}
	return string(data)
}

func compareBodies(name string, got string, expected string) error {
	if got == expected {
		return nil
	}

	gotLines := strings.Split(got, "\n")
	expLines := strings.Split(expected, "\n")

	c := 0
	for ; c < len(gotLines) && c < len(expLines); c++ {
		if gotLines[c] != expLines[c] {
			break
		}
	}

	gotLine := ""
	expLine := ""
	if c < len(gotLines) {
		gotLine = gotLines[c]
	}
	if c < len(expLines) {
		expLine = expLines[c]
	}

	return fmt.Errorf("%v%v - body\nline %v\nexpected: \"%v\"\nS3 recvd: \"%v\"", ErrWrongInput, name, c+1, expLine, gotLine)
}
