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

// Resumable upload of payloads too large to send inline. A session is opened with the metadata
// service, the gzipped payload is sent in fixed size chunks to a tus endpoint, then the metadata
// service is told the upload is finished.
//
// Sessions are owned by one caller at a time. An upload interrupted by network trouble can be
// continued by calling Upload again with the same session, which picks up from the offset the
// server reports.
package chunkupload

import (
	"context"
	"fmt"
	"net/url"
)

// State - where a session is in the upload protocol
type State int

const (
	Created State = iota
	SessionOpened
	Uploading
	Finishing
	Completed
	Failed
)

var stateNames = []string{"Created", "SessionOpened", "Uploading", "Finishing", "Completed", "Failed"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%v)", int(s))
}

// IsTerminal - Completed and Failed sessions can't be advanced any further
func (s State) IsTerminal() bool {
	return s == Completed || s == Failed
}

// Session - state of one upload. Not safe for concurrent use, and never persisted.
type Session struct {
	State           State
	Question        string
	TMACoreID       int
	UploadToken     string
	APIToken        string
	AnnotationID    string
	RemoteUploadURL *url.URL
	BytesSent       uint64
	ChunkSize       uint32
	TotalSize       uint64
}

// Handle - what the metadata service gives us when opening an upload
type Handle struct {
	UploadToken  string
	APIToken     string
	AnnotationID string
}

// MetadataService - the calls on the slide server that bracket the data upload
type MetadataService interface {
	// tmaCoreID <= 0 means the answer is for the whole slide
	CreateUploadSession(ctx context.Context, question string, tmaCoreID int) (Handle, error)
	FinishUpload(ctx context.Context, uploadToken string, uploadID string, apiToken string) error
}

// ResumableEndpoint - where the payload bytes go
type ResumableEndpoint interface {
	// Create - makes a new upload of the given size, returns its URL
	Create(ctx context.Context, size int64, metadata map[string]string) (*url.URL, error)
	// Offset - how many bytes of the upload the server has
	Offset(ctx context.Context, uploadURL *url.URL) (int64, error)
	// WriteChunk - sends bytes starting at offset, returns the new offset reported by the server
	WriteChunk(ctx context.Context, uploadURL *url.URL, offset int64, chunk []byte) (int64, error)
}
