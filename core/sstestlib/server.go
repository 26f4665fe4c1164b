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

// In-process stand-in for the slide server, for tests of the client, answer routing and the CLI.
// Serves one slide at /i/<slide>/<token>/ plus the resumable upload endpoint at /files.
package sstestlib

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

const slidePath = "/i/{slide}/{token}/"

// DefaultMetadata - a 2000x1000 slide with 3 levels
const DefaultMetadata = `{
	"FileName": "TMA_block_7.svs",
	"Level0Width": 2000,
	"Level0Height": 1000,
	"Level0TileWidth": 256,
	"Level0TileHeight": 256,
	"LevelCount": 3,
	"LevelWidths": [2000, 1000, 500],
	"LevelHeights": [1000, 500, 250],
	"MppX": 0.5,
	"MppY": 0.5,
	"ObjectivePower": 20,
	"BackgroundColor": "#ffffff"
}`

// TileBytes - what every tile request returns, the start of a JPEG
var TileBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

// PostedAnswer - an inline answer the server received
type PostedAnswer struct {
	Question string
	Answer   string
}

// Anno2Record - a large answer created through CreateAnno2
type Anno2Record struct {
	Question    string
	TMACoreID   string
	AnnoUUID    string
	UploadToken string
	APIToken    string
	UploadID    string
	Finished    bool
	Data        []byte
}

type FakeServer struct {
	Server *httptest.Server

	mutex sync.Mutex

	// Responses, change before making requests
	MetadataJSON     string
	TMAPositionsJSON string
	QuestionLines    []string
	AnswerLines      []string

	// Failure injection
	MetadataStatus     int
	TransientFailures  int
	CreateAnno2Error   string
	FinishError        string
	FailPatches        int
	FailPatchesAfter   int
	SuccessAsString    bool
	RejectUploadLength int64

	answers  []PostedAnswer
	records  map[string]*Anno2Record
	uploads  map[string]*tusUpload
	patches  int
	requests map[string]int
}

func NewFakeServer() *FakeServer {
	s := &FakeServer{
		MetadataJSON:     DefaultMetadata,
		TMAPositionsJSON: `{"coreRadiusUM": 0, "rotate": 0, "cores": []}`,
		QuestionLines:    []string{},
		AnswerLines:      []string{},
		answers:          []PostedAnswer{},
		records:          map[string]*Anno2Record{},
		uploads:          map[string]*tusUpload{},
		requests:         map[string]int{},
	}

	router := mux.NewRouter()
	router.HandleFunc(slidePath+"SlideScoreMetadata.json", s.counted("metadata", s.handleMetadata)).Methods(http.MethodGet)
	router.HandleFunc(slidePath+"TMAPositions.json", s.counted("tma", s.handleText(func() string { return s.TMAPositionsJSON }))).Methods(http.MethodGet)
	router.HandleFunc(slidePath+"Questions.json", s.counted("questions", s.handleText(func() string { return strings.Join(s.QuestionLines, "\n") }))).Methods(http.MethodGet)
	router.HandleFunc(slidePath+"Answers.json", s.counted("answers", s.handleText(func() string { return strings.Join(s.AnswerLines, "\n") }))).Methods(http.MethodGet)
	router.HandleFunc(slidePath+"AnnoAnswer.json", s.counted("annoanswer", s.handleAnnoAnswer)).Methods(http.MethodPost)
	router.HandleFunc(slidePath+"CreateAnno2.json", s.counted("createanno2", s.handleCreateAnno2)).Methods(http.MethodPost)
	router.HandleFunc(slidePath+"FinishAnno2Upload.json", s.counted("finishanno2", s.handleFinish)).Methods(http.MethodPost)
	router.HandleFunc(slidePath+"raw/{level:[0-9]+}/{x:[0-9]+}_{y:[0-9]+}/{w:[0-9]+}_{h:[0-9]+}.jpeg", s.counted("tile", s.handleTile)).Methods(http.MethodGet)

	router.HandleFunc("/files", s.counted("tus-create", s.handleTusCreate)).Methods(http.MethodPost)
	router.HandleFunc("/files/{id}", s.counted("tus-head", s.handleTusHead)).Methods(http.MethodHead)
	router.HandleFunc("/files/{id}", s.counted("tus-patch", s.handleTusPatch)).Methods(http.MethodPatch)

	s.Server = httptest.NewServer(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(router))
	return s
}

func (s *FakeServer) Close() {
	s.Server.Close()
}

// SlideURL - metadata URL of the served slide
func (s *FakeServer) SlideURL() string {
	return s.Server.URL + "/i/42/tok3n/SlideScoreMetadata.json"
}

// Requests - how many requests a named route has had
func (s *FakeServer) Requests(route string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.requests[route]
}

func (s *FakeServer) PostedAnswers() []PostedAnswer {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]PostedAnswer{}, s.answers...)
}

// FinishedRecords - large answers whose upload completed, data gzip compressed as sent
func (s *FakeServer) FinishedRecords() []Anno2Record {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	result := []Anno2Record{}
	for _, r := range s.records {
		if r.Finished {
			result = append(result, *r)
		}
	}
	return result
}

func (s *FakeServer) counted(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mutex.Lock()
		s.requests[route]++
		s.mutex.Unlock()
		h(w, r)
	}
}

// Returns true if a transient failure was sent
func (s *FakeServer) transientFailure(w http.ResponseWriter) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.TransientFailures > 0 {
		s.TransientFailures--
		http.Error(w, "try again", http.StatusServiceUnavailable)
		return true
	}
	return false
}

func (s *FakeServer) handleMetadata(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	status := s.MetadataStatus
	body := s.MetadataJSON
	s.mutex.Unlock()

	if status != 0 && status != http.StatusOK {
		http.Error(w, "slide unavailable", status)
		return
	}
	if s.transientFailure(w) {
		return
	}
	fmt.Fprint(w, body)
}

func (s *FakeServer) handleText(body func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.transientFailure(w) {
			return
		}
		s.mutex.Lock()
		txt := body()
		s.mutex.Unlock()
		fmt.Fprint(w, txt)
	}
}

func (s *FakeServer) handleAnnoAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mutex.Lock()
	s.answers = append(s.answers, PostedAnswer{Question: r.PostForm.Get("question"), Answer: r.PostForm.Get("answer")})
	s.mutex.Unlock()

	s.writeStatus(w, true, "")
}

func (s *FakeServer) handleCreateAnno2(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.CreateAnno2Error) > 0 {
		s.writeStatusLocked(w, false, s.CreateAnno2Error, nil)
		return
	}

	rec := &Anno2Record{
		Question:    r.PostForm.Get("question"),
		TMACoreID:   r.PostForm.Get("tmaCoreId"),
		AnnoUUID:    uuid.NewString(),
		UploadToken: uuid.NewString(),
		APIToken:    uuid.NewString(),
	}
	s.records[rec.UploadToken] = rec

	s.writeStatusLocked(w, true, "", map[string]interface{}{
		"uploadToken": rec.UploadToken,
		"apiToken":    rec.APIToken,
		"annoUUID":    rec.AnnoUUID,
	})
}

func (s *FakeServer) handleFinish(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.FinishError) > 0 {
		s.writeStatusLocked(w, false, s.FinishError, nil)
		return
	}

	rec, ok := s.records[r.PostForm.Get("uploadToken")]
	if !ok || rec.APIToken != r.PostForm.Get("apiToken") {
		s.writeStatusLocked(w, false, "Unknown upload token", nil)
		return
	}

	upload, ok := s.uploads[r.PostForm.Get("uploadId")]
	if !ok || upload.metadata["uploadtoken"] != rec.UploadToken {
		s.writeStatusLocked(w, false, "Unknown upload", nil)
		return
	}
	if int64(len(upload.data)) != upload.length {
		s.writeStatusLocked(w, false, fmt.Sprintf("Upload incomplete: %v of %v bytes", len(upload.data), upload.length), nil)
		return
	}

	rec.UploadID = r.PostForm.Get("uploadId")
	rec.Data = upload.data
	rec.Finished = true
	s.writeStatusLocked(w, true, "", nil)
}

func (s *FakeServer) handleTile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(TileBytes)
}

func (s *FakeServer) writeStatus(w http.ResponseWriter, success bool, errMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.writeStatusLocked(w, success, errMsg, nil)
}

func (s *FakeServer) writeStatusLocked(w http.ResponseWriter, success bool, errMsg string, fields map[string]interface{}) {
	resp := map[string]interface{}{}
	for k, v := range fields {
		resp[k] = v
	}

	if s.SuccessAsString {
		resp["success"] = fmt.Sprintf("%v", success)
	} else {
		resp["success"] = success
	}
	if len(errMsg) > 0 {
		resp["error"] = errMsg
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
