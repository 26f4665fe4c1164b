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

package sstestlib

import (
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/slidescore/slidebridge/core/chunkupload"
)

type tusUpload struct {
	length   int64
	data     []byte
	metadata map[string]string
}

func tusHeaders(w http.ResponseWriter) {
	w.Header().Set("Tus-Resumable", "1.0.0")
	w.Header().Set("Cache-Control", "no-store")
}

func checkTusVersion(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Tus-Resumable") != "1.0.0" {
		w.Header().Set("Tus-Version", "1.0.0")
		http.Error(w, "unsupported tus version", http.StatusPreconditionFailed)
		return false
	}
	return true
}

func (s *FakeServer) handleTusCreate(w http.ResponseWriter, r *http.Request) {
	if !checkTusVersion(w, r) {
		return
	}

	length, err := strconv.ParseInt(r.Header.Get("Upload-Length"), 10, 64)
	if err != nil || length < 0 {
		http.Error(w, "invalid Upload-Length", http.StatusBadRequest)
		return
	}
	s.mutex.Lock()
	maxLength := s.RejectUploadLength
	s.mutex.Unlock()

	if maxLength > 0 && length > maxLength {
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
		return
	}

	metadata, err := chunkupload.DecodeMetadata(r.Header.Get("Upload-Metadata"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.NewString()

	s.mutex.Lock()
	s.uploads[id] = &tusUpload{length: length, data: []byte{}, metadata: metadata}
	s.mutex.Unlock()

	tusHeaders(w)
	w.Header().Set("Location", "/files/"+id)
	w.WriteHeader(http.StatusCreated)
}

func (s *FakeServer) handleTusHead(w http.ResponseWriter, r *http.Request) {
	if !checkTusVersion(w, r) {
		return
	}

	s.mutex.Lock()
	upload, ok := s.uploads[mux.Vars(r)["id"]]
	var offset, length int64
	if ok {
		offset = int64(len(upload.data))
		length = upload.length
	}
	s.mutex.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	tusHeaders(w)
	w.Header().Set("Upload-Offset", strconv.FormatInt(offset, 10))
	w.Header().Set("Upload-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusOK)
}

func (s *FakeServer) handleTusPatch(w http.ResponseWriter, r *http.Request) {
	if !checkTusVersion(w, r) {
		return
	}
	if r.Header.Get("Content-Type") != "application/offset+octet-stream" {
		http.Error(w, "bad content type", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.patches++
	if s.FailPatches > 0 && s.patches > s.FailPatchesAfter {
		s.FailPatches--
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	upload, ok := s.uploads[mux.Vars(r)["id"]]
	if !ok {
		http.Error(w, "no such upload", http.StatusNotFound)
		return
	}

	offset, err := strconv.ParseInt(r.Header.Get("Upload-Offset"), 10, 64)
	if err != nil || offset != int64(len(upload.data)) {
		http.Error(w, "offset mismatch", http.StatusConflict)
		return
	}
	if offset+int64(len(body)) > upload.length {
		http.Error(w, "too much data", http.StatusRequestEntityTooLarge)
		return
	}

	upload.data = append(upload.data, body...)

	tusHeaders(w)
	w.Header().Set("Upload-Offset", strconv.Itoa(len(upload.data)))
	w.WriteHeader(http.StatusNoContent)
}
