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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/slidescore/slidebridge/core/utils"
)

// FileAccess - where exports get written. Implemented for the local file system and S3, so the
// same code can write to a directory while testing and a bucket in production.
// The first parameter of each call is the bucket, or the root directory for local files.
type FileAccess interface {
	ListObjects(bucket string, prefix string) ([]string, error)
	ObjectExists(bucket string, path string) (bool, error)

	ReadObject(bucket string, path string) ([]byte, error)
	WriteObject(bucket string, path string, data []byte) error

	ReadJSON(bucket string, path string, itemsPtr interface{}, emptyIfNotFound bool) error
	// Written pretty printed
	WriteJSON(bucket string, path string, itemsPtr interface{}) error

	DeleteObject(bucket string, path string) error

	IsNotFoundError(err error) bool
}

// MakeValidObjectName - strips characters that cause trouble in S3 keys and file names.
// Slashes become underscores so the result is always a single path segment
func MakeValidObjectName(name string) string {
	for _, ch := range []string{"?", "$", "#", "!", "'", "\"", "*", ":"} {
		name = strings.ReplaceAll(name, ch, "")
	}
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return name
}

// SplitS3URL - s3://bucket/some/path to bucket and some/path. The path may be empty
func SplitS3URL(url string) (string, string, error) {
	trimmed := strings.TrimPrefix(url, "s3://")
	if trimmed == url {
		return "", "", fmt.Errorf("not a valid S3 url: %v", url)
	}

	bucket, path, _ := strings.Cut(trimmed, "/")
	if len(bucket) <= 0 {
		return "", "", fmt.Errorf("failed to get bucket from S3 url: %v", url)
	}
	return bucket, strings.TrimSuffix(path, "/"), nil
}

// Shared by the implementations: read then unmarshal, treating a missing object as empty if asked
func readJSON(fa FileAccess, bucket string, path string, itemsPtr interface{}, emptyIfNotFound bool) error {
	fileData, err := fa.ReadObject(bucket, path)
	if err != nil {
		if emptyIfNotFound && fa.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(fileData, itemsPtr)
}

func writeJSON(fa FileAccess, bucket string, path string, itemsPtr interface{}) error {
	fileData, err := json.MarshalIndent(itemsPtr, "", utils.PrettyPrintIndentForJSON)
	if err != nil {
		return err
	}

	return fa.WriteObject(bucket, path, fileData)
}
