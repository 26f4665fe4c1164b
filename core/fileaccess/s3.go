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
	"io"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// HeadObject has no body to carry an error code, so a missing key comes back as this
const errCodeHeadNotFound = "NotFound"

// S3Access - file access on an S3 bucket
type S3Access struct {
	s3Api s3iface.S3API

	// Set on every write if not empty, eg "AES256" or "aws:kms"
	ServerSideEncryption string
}

func MakeS3Access(s3Api s3iface.S3API) S3Access {
	return S3Access{s3Api: s3Api}
}

// ListObjects - keys under prefix, following continuation tokens until the listing is complete.
// Console-made "directory" keys (ending in /) are skipped
func (s3Access S3Access) ListObjects(bucket string, prefix string) ([]string, error) {
	result := []string{}
	params := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}

	for {
		listing, err := s3Access.s3Api.ListObjectsV2(params)
		if err != nil {
			return []string{}, errors.Wrapf(err, "failed to list s3://%v/%v", bucket, prefix)
		}

		for _, item := range listing.Contents {
			if key := aws.StringValue(item.Key); !strings.HasSuffix(key, "/") {
				result = append(result, key)
			}
		}

		if !aws.BoolValue(listing.IsTruncated) || listing.NextContinuationToken == nil {
			return result, nil
		}
		params.ContinuationToken = aws.String(*listing.NextContinuationToken)
	}
}

func (s3Access S3Access) ObjectExists(bucket string, key string) (bool, error) {
	_, err := s3Access.s3Api.HeadObject(&s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	switch {
	case err == nil:
		return true, nil
	case s3Access.IsNotFoundError(err):
		return false, nil
	}
	return false, err
}

func (s3Access S3Access) ReadObject(bucket string, key string) ([]byte, error) {
	obj, err := s3Access.s3Api.GetObject(&s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, err
	}
	defer obj.Body.Close()

	return io.ReadAll(obj.Body)
}

// WriteObject - content type is guessed from the key's extension
func (s3Access S3Access) WriteObject(bucket string, key string, data []byte) error {
	input := &s3.PutObjectInput{
		Body:   bytes.NewReader(data),
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if contentType := mime.TypeByExtension(path.Ext(key)); len(contentType) > 0 {
		input.ContentType = aws.String(contentType)
	}
	if len(s3Access.ServerSideEncryption) > 0 {
		input.ServerSideEncryption = aws.String(s3Access.ServerSideEncryption)
	}

	_, err := s3Access.s3Api.PutObject(input)
	return errors.Wrapf(err, "failed to write s3://%v/%v", bucket, key)
}

func (s3Access S3Access) ReadJSON(bucket string, key string, itemsPtr interface{}, emptyIfNotFound bool) error {
	return readJSON(s3Access, bucket, key, itemsPtr, emptyIfNotFound)
}

func (s3Access S3Access) WriteJSON(bucket string, key string, itemsPtr interface{}) error {
	return writeJSON(s3Access, bucket, key, itemsPtr)
}

func (s3Access S3Access) DeleteObject(bucket string, key string) error {
	_, err := s3Access.s3Api.DeleteObject(&s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	return err
}

func (s3Access S3Access) IsNotFoundError(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == errCodeHeadNotFound
	}
	return false
}
