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

package chunkupload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/slidescore/slidebridge/core/errorwithstatus"
	"github.com/slidescore/slidebridge/core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// In-memory resumable endpoint with failure injection. Write attempts are numbered from 1.
type fakeEndpoint struct {
	mu sync.Mutex

	data     []byte
	size     int64
	metadata map[string]string
	created  int

	createErr   error
	failWrites  map[int]error
	lostAcks    map[int]bool
	attempts    int
	offsetCalls int

	// Offsets of writes that were applied
	applied []int64
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{failWrites: map[int]error{}, lostAcks: map[int]bool{}, applied: []int64{}}
}

func (f *fakeEndpoint) Create(ctx context.Context, size int64, metadata map[string]string) (*url.URL, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	f.size = size
	f.metadata = metadata
	f.data = []byte{}
	return url.Parse("https://slides.example.com/files/abc123")
}

func (f *fakeEndpoint) Offset(ctx context.Context, uploadURL *url.URL) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.offsetCalls++
	return int64(len(f.data)), nil
}

func (f *fakeEndpoint) WriteChunk(ctx context.Context, uploadURL *url.URL, offset int64, chunk []byte) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts++
	if err, ok := f.failWrites[f.attempts]; ok {
		return 0, err
	}
	if offset != int64(len(f.data)) {
		return 0, errorwithstatus.MakeStatusError(409, fmt.Errorf("offset mismatch: %v vs %v", offset, len(f.data)))
	}

	f.data = append(f.data, chunk...)
	f.applied = append(f.applied, offset)

	if f.lostAcks[f.attempts] {
		return 0, errors.New("connection reset by peer")
	}
	return int64(len(f.data)), nil
}

type fakeMeta struct {
	createErr error
	finishErr error

	finished    int
	uploadToken string
	uploadID    string
	apiToken    string
}

func (m *fakeMeta) CreateUploadSession(ctx context.Context, question string, tmaCoreID int) (Handle, error) {
	if m.createErr != nil {
		return Handle{}, m.createErr
	}
	return Handle{UploadToken: "up-tok", APIToken: "api-tok", AnnotationID: "anno-1"}, nil
}

func (m *fakeMeta) FinishUpload(ctx context.Context, uploadToken string, uploadID string, apiToken string) error {
	m.finished++
	m.uploadToken = uploadToken
	m.uploadID = uploadID
	m.apiToken = apiToken
	return m.finishErr
}

func makePayload(size int) []byte {
	r := rand.New(rand.NewSource(42))
	payload := make([]byte, size)
	r.Read(payload)
	return payload
}

func gunzip(t *testing.T, data []byte) []byte {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	result, err := io.ReadAll(zr)
	require.NoError(t, err)
	return result
}

func assertDirEmpty(t *testing.T, dir string) {
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp artifact left behind")
}

func testConfig(t *testing.T) Config {
	return Config{ChunkSize: 1024, MaxChunkRetries: 0, TempDir: t.TempDir()}
}

func Test_uploadResumesAfterInterruption(t *testing.T) {
	payload := makePayload(4500)
	cfg := testConfig(t)
	endpoint := newFakeEndpoint()
	meta := &fakeMeta{}

	// Third chunk write fails
	endpoint.failWrites[3] = errors.New("connection reset by peer")

	log := &logger.CaptureLogger{}
	up := NewUploader(meta, endpoint, cfg, log)

	s, err := up.Open(context.Background(), "Tumour area", 0)
	require.NoError(t, err)
	assert.Equal(t, SessionOpened, s.State)
	assert.Equal(t, "up-tok", s.UploadToken)
	assert.Equal(t, "anno-1", s.AnnotationID)

	err = up.Upload(context.Background(), s, payload)

	var interrupted *TransferInterruptedError
	require.True(t, errors.As(err, &interrupted), "expected interruption, got %v", err)
	assert.True(t, interrupted.Retryable())
	assert.Equal(t, Uploading, s.State)
	assert.Equal(t, uint64(2048), s.BytesSent)
	assert.Equal(t, uint64(2048), interrupted.BytesSent)
	assert.Equal(t, 0, meta.finished)
	assertDirEmpty(t, cfg.TempDir)
	assert.Contains(t, log.Lines(), "ERROR: Upload for question \"Tumour area\" interrupted at 2048 of "+fmt.Sprintf("%v", s.TotalSize)+" bytes: connection reset by peer")

	chunks := (s.TotalSize + 1023) / 1024
	require.Equal(t, uint64(5), chunks)

	// Resume with the same session
	err = up.Upload(context.Background(), s, payload)
	require.NoError(t, err)

	assert.Equal(t, Completed, s.State)
	assert.Equal(t, s.TotalSize, s.BytesSent)
	assert.Equal(t, 1, endpoint.created)
	assert.Equal(t, 1, endpoint.offsetCalls)
	assert.Equal(t, []int64{0, 1024, 2048, 3072, 4096}, endpoint.applied)
	assert.Equal(t, payload, gunzip(t, endpoint.data))
	assertDirEmpty(t, cfg.TempDir)

	assert.Equal(t, 1, meta.finished)
	assert.Equal(t, "up-tok", meta.uploadToken)
	assert.Equal(t, "abc123", meta.uploadID)
	assert.Equal(t, "api-tok", meta.apiToken)

	assert.Equal(t, "up-tok", endpoint.metadata["uploadtoken"])
	assert.Equal(t, "api-tok", endpoint.metadata["apitoken"])
	assert.Regexp(t, `^qupath_anno_.*\.json\.gz$`, endpoint.metadata["filename"])
}

func Test_uploadLostAckDoesNotResend(t *testing.T) {
	payload := makePayload(4500)
	cfg := testConfig(t)
	cfg.MaxChunkRetries = 2
	endpoint := newFakeEndpoint()
	endpoint.lostAcks[2] = true
	meta := &fakeMeta{}

	progress := []uint64{}
	cfg.Progress = func(sent uint64, total uint64) {
		progress = append(progress, sent)
	}

	retriesBefore := testutil.ToFloat64(chunkRetries)

	up := NewUploader(meta, endpoint, cfg, nil)
	s, err := up.Open(context.Background(), "Q", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.TMACoreID)

	require.NoError(t, up.Upload(context.Background(), s, payload))
	assert.Equal(t, Completed, s.State)
	assert.Equal(t, []int64{0, 1024, 2048, 3072, 4096}, endpoint.applied)
	assert.Equal(t, 1, endpoint.offsetCalls)
	assert.Equal(t, payload, gunzip(t, endpoint.data))
	assert.Equal(t, []uint64{1024, 3072, 4096, s.TotalSize}, progress)
	assert.Equal(t, retriesBefore+1, testutil.ToFloat64(chunkRetries))
	assertDirEmpty(t, cfg.TempDir)
}

func Test_uploadRejected(t *testing.T) {
	cfg := testConfig(t)
	endpoint := newFakeEndpoint()
	endpoint.failWrites[1] = errorwithstatus.MakeStatusError(410, errors.New("upload gone"))
	meta := &fakeMeta{}

	up := NewUploader(meta, endpoint, cfg, nil)
	s, err := up.Open(context.Background(), "Q", 0)
	require.NoError(t, err)

	err = up.Upload(context.Background(), s, makePayload(100))

	var rejected *UploadRejectedError
	require.True(t, errors.As(err, &rejected), "expected rejection, got %v", err)
	assert.Equal(t, 410, rejected.Status)
	assert.Equal(t, Failed, s.State)
	assertDirEmpty(t, cfg.TempDir)

	// Can't continue a failed session
	assert.Error(t, up.Upload(context.Background(), s, makePayload(100)))
	assert.Equal(t, 0, meta.finished)
}

func Test_uploadCreateFailsIsRetryable(t *testing.T) {
	cfg := testConfig(t)
	endpoint := newFakeEndpoint()
	endpoint.createErr = errors.New("dial tcp: connection refused")

	up := NewUploader(&fakeMeta{}, endpoint, cfg, nil)
	s, err := up.Open(context.Background(), "Q", 0)
	require.NoError(t, err)

	err = up.Upload(context.Background(), s, makePayload(100))
	var interrupted *TransferInterruptedError
	require.True(t, errors.As(err, &interrupted))
	assert.Nil(t, s.RemoteUploadURL)
	assertDirEmpty(t, cfg.TempDir)

	endpoint.createErr = nil
	require.NoError(t, up.Upload(context.Background(), s, makePayload(100)))
	assert.Equal(t, Completed, s.State)
	assert.Equal(t, 0, endpoint.offsetCalls)
}

func Test_uploadFinishFails(t *testing.T) {
	cfg := testConfig(t)
	meta := &fakeMeta{finishErr: errors.New("Completing anno2 record failed: no such upload")}
	up := NewUploader(meta, newFakeEndpoint(), cfg, nil)

	s, err := up.Open(context.Background(), "Q", 0)
	require.NoError(t, err)

	err = up.Upload(context.Background(), s, makePayload(3000))

	var finishErr *FinishFailedError
	require.True(t, errors.As(err, &finishErr))
	assert.Equal(t, "Completing anno2 record failed: no such upload", finishErr.Reason)
	assert.Equal(t, Failed, s.State)
	assert.Equal(t, s.TotalSize, s.BytesSent)
	assertDirEmpty(t, cfg.TempDir)
}

func Test_openFails(t *testing.T) {
	meta := &fakeMeta{createErr: errors.New("Creating anno2 record failed: unknown question")}
	up := NewUploader(meta, newFakeEndpoint(), testConfig(t), nil)

	s, err := up.Open(context.Background(), "Q", 0)

	var createErr *SessionCreateFailedError
	require.True(t, errors.As(err, &createErr))
	assert.Equal(t, "Creating anno2 record failed: unknown question", createErr.Reason)
	assert.Equal(t, Failed, s.State)
}

func Test_uploadCancelledBetweenChunks(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg.Progress = func(sent uint64, total uint64) {
		cancel()
	}
	endpoint := newFakeEndpoint()
	up := NewUploader(&fakeMeta{}, endpoint, cfg, nil)

	s, err := up.Open(context.Background(), "Q", 0)
	require.NoError(t, err)

	payload := makePayload(4500)
	err = up.Upload(ctx, s, payload)

	var interrupted *TransferInterruptedError
	require.True(t, errors.As(err, &interrupted))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, uint64(1024), s.BytesSent)
	assert.Equal(t, Uploading, s.State)
	assertDirEmpty(t, cfg.TempDir)

	// Carries on with a fresh context
	cfg.Progress = nil
	up = NewUploader(&fakeMeta{}, endpoint, cfg, nil)
	require.NoError(t, up.Upload(context.Background(), s, payload))
	assert.Equal(t, Completed, s.State)
	assert.Equal(t, []int64{0, 1024, 2048, 3072, 4096}, endpoint.applied)
}

func Test_uploadResumeWithDifferentPayload(t *testing.T) {
	cfg := testConfig(t)
	endpoint := newFakeEndpoint()
	endpoint.failWrites[1] = errors.New("timeout")
	up := NewUploader(&fakeMeta{}, endpoint, cfg, nil)

	s, err := up.Open(context.Background(), "Q", 0)
	require.NoError(t, err)

	require.Error(t, up.Upload(context.Background(), s, makePayload(4500)))
	err = up.Upload(context.Background(), s, makePayload(200))
	assert.ErrorContains(t, err, "session was started with")
	assert.Equal(t, Uploading, s.State)
	assertDirEmpty(t, cfg.TempDir)
}

func Test_abandon(t *testing.T) {
	up := NewUploader(&fakeMeta{}, newFakeEndpoint(), testConfig(t), nil)
	s, err := up.Open(context.Background(), "Q", 0)
	require.NoError(t, err)

	up.Abandon(s)
	assert.Equal(t, Failed, s.State)
	assert.True(t, s.State.IsTerminal())
	assert.Error(t, up.Upload(context.Background(), s, []byte("x")))
}

func Example_stateString() {
	fmt.Println(Created, SessionOpened, Uploading, Finishing, Completed, Failed, State(17))

	// Output:
	// Created SessionOpened Uploading Finishing Completed Failed State(17)
}

// Wraps fakeEndpoint with requests that hang until their context gives up
type stallingEndpoint struct {
	*fakeEndpoint

	stallWrite   int
	stallOffsets bool
	writes       int
}

func (e *stallingEndpoint) Offset(ctx context.Context, uploadURL *url.URL) (int64, error) {
	if e.stallOffsets {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return e.fakeEndpoint.Offset(ctx, uploadURL)
}

func (e *stallingEndpoint) WriteChunk(ctx context.Context, uploadURL *url.URL, offset int64, chunk []byte) (int64, error) {
	e.writes++
	if e.writes == e.stallWrite {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return e.fakeEndpoint.WriteChunk(ctx, uploadURL, offset, chunk)
}

func Test_uploadChunkTimeout(t *testing.T) {
	payload := makePayload(4500)
	cfg := testConfig(t)
	cfg.ChunkTimeout = 50 * time.Millisecond
	endpoint := &stallingEndpoint{fakeEndpoint: newFakeEndpoint(), stallWrite: 2}
	meta := &fakeMeta{}

	up := NewUploader(meta, endpoint, cfg, nil)
	s, err := up.Open(context.Background(), "Q", 0)
	require.NoError(t, err)

	start := time.Now()
	err = up.Upload(context.Background(), s, payload)
	assert.Less(t, time.Since(start), 5*time.Second)

	var interrupted *TransferInterruptedError
	require.True(t, errors.As(err, &interrupted), "expected interruption, got %v", err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, Uploading, s.State)
	assert.Equal(t, uint64(1024), s.BytesSent)
	assert.Equal(t, 0, meta.finished)
	assertDirEmpty(t, cfg.TempDir)

	// Only the second write hangs, so resuming gets through
	require.NoError(t, up.Upload(context.Background(), s, payload))
	assert.Equal(t, Completed, s.State)
	assert.Equal(t, payload, gunzip(t, endpoint.data))
	assert.Equal(t, 1, meta.finished)
}

func Test_uploadOffsetTimeout(t *testing.T) {
	payload := makePayload(4500)
	cfg := testConfig(t)
	cfg.ChunkTimeout = 50 * time.Millisecond
	endpoint := &stallingEndpoint{fakeEndpoint: newFakeEndpoint()}
	endpoint.failWrites[3] = errors.New("connection reset by peer")
	meta := &fakeMeta{}

	up := NewUploader(meta, endpoint, cfg, nil)
	s, err := up.Open(context.Background(), "Q", 0)
	require.NoError(t, err)

	var interrupted *TransferInterruptedError
	err = up.Upload(context.Background(), s, payload)
	require.True(t, errors.As(err, &interrupted), "expected interruption, got %v", err)
	assert.Equal(t, uint64(2048), s.BytesSent)

	// Resuming asks for the offset first, which now hangs
	endpoint.stallOffsets = true
	start := time.Now()
	err = up.Upload(context.Background(), s, payload)
	assert.Less(t, time.Since(start), 5*time.Second)

	require.True(t, errors.As(err, &interrupted), "expected interruption, got %v", err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, Uploading, s.State)
	assert.Equal(t, uint64(2048), s.BytesSent)
	assertDirEmpty(t, cfg.TempDir)

	endpoint.stallOffsets = false
	require.NoError(t, up.Upload(context.Background(), s, payload))
	assert.Equal(t, Completed, s.State)
	assert.Equal(t, payload, gunzip(t, endpoint.data))
}
