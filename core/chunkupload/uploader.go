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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	pkgerrors "github.com/pkg/errors"
	"github.com/slidescore/slidebridge/core/errorwithstatus"
	"github.com/slidescore/slidebridge/core/logger"
)

const (
	DefaultChunkSize       = 5 * 1024 * 1024
	DefaultChunkTimeout    = 60 * time.Second
	DefaultMaxChunkRetries = 3
	DefaultRetryDelay      = time.Second

	artifactPattern = "qupath_anno_*.json.gz"
)

// ProgressFunc - called after every acknowledged chunk
type ProgressFunc func(sent uint64, total uint64)

type Config struct {
	ChunkSize    uint32
	ChunkTimeout time.Duration
	// Consecutive failed requests tolerated before giving up with TransferInterruptedError
	MaxChunkRetries int
	RetryDelay      time.Duration
	// Where the compressed payload is staged. Empty means os.TempDir()
	TempDir  string
	Progress ProgressFunc
}

// Uploader - runs the upload protocol against a metadata service and resumable endpoint
type Uploader struct {
	meta     MetadataService
	endpoint ResumableEndpoint
	cfg      Config
	log      logger.ILogger
}

func NewUploader(meta MetadataService, endpoint ResumableEndpoint, cfg Config, log logger.ILogger) *Uploader {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkTimeout <= 0 {
		cfg.ChunkTimeout = DefaultChunkTimeout
	}
	if cfg.MaxChunkRetries < 0 {
		cfg.MaxChunkRetries = 0
	}
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Uploader{meta: meta, endpoint: endpoint, cfg: cfg, log: log}
}

// Open - asks the metadata service for an upload handle. tmaCoreID <= 0 for whole slide answers.
func (u *Uploader) Open(ctx context.Context, question string, tmaCoreID int) (*Session, error) {
	s := &Session{State: Created, Question: question, TMACoreID: tmaCoreID, ChunkSize: u.cfg.ChunkSize}

	handle, err := u.meta.CreateUploadSession(ctx, question, tmaCoreID)
	if err != nil {
		s.State = Failed
		uploads.WithLabelValues(outcomeCreateFail).Inc()

		var createErr *SessionCreateFailedError
		if errors.As(err, &createErr) {
			return s, createErr
		}
		return s, &SessionCreateFailedError{Reason: err.Error(), Err: err}
	}

	s.UploadToken = handle.UploadToken
	s.APIToken = handle.APIToken
	s.AnnotationID = handle.AnnotationID
	s.State = SessionOpened

	u.log.Infof("Created upload session for question \"%v\", annotation: %v", question, handle.AnnotationID)
	return s, nil
}

// Abandon - gives up on a session. It can't be used afterwards.
func (u *Uploader) Abandon(s *Session) {
	if !s.State.IsTerminal() {
		u.log.Infof("Abandoning upload for question \"%v\" at %v of %v bytes", s.Question, s.BytesSent, s.TotalSize)
	}
	s.State = Failed
}

// Upload - sends payload and completes the session. Must be given the same payload when resuming
// an interrupted session. On *TransferInterruptedError the session can be passed in again.
func (u *Uploader) Upload(ctx context.Context, s *Session, payload []byte) error {
	if s.State != SessionOpened && s.State != Uploading {
		return fmt.Errorf("cannot upload with session in state %v", s.State)
	}

	artifactPath, size, err := writeArtifact(u.cfg.TempDir, payload)
	if len(artifactPath) > 0 {
		defer os.Remove(artifactPath)
	}
	if err != nil {
		return err
	}

	if s.TotalSize > 0 && s.TotalSize != uint64(size) {
		return fmt.Errorf("payload is %v bytes compressed, session was started with %v", size, s.TotalSize)
	}
	s.TotalSize = uint64(size)
	s.ChunkSize = u.cfg.ChunkSize

	f, err := os.Open(artifactPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to open compressed payload")
	}
	defer f.Close()

	resuming := s.RemoteUploadURL != nil
	if !resuming {
		if err := u.create(ctx, s, filepath.Base(artifactPath)); err != nil {
			return err
		}
	} else {
		u.log.Infof("Resuming upload for question \"%v\" at %v", s.Question, s.RemoteUploadURL)
	}
	s.State = Uploading

	if err := u.transfer(ctx, s, f, resuming); err != nil {
		return err
	}

	return u.finish(ctx, s)
}

func (u *Uploader) create(ctx context.Context, s *Session, fileName string) error {
	chunkCtx, cancel := context.WithTimeout(ctx, u.cfg.ChunkTimeout)
	defer cancel()

	uploadURL, err := u.endpoint.Create(chunkCtx, int64(s.TotalSize), map[string]string{
		"filename":    fileName,
		"uploadtoken": s.UploadToken,
		"apitoken":    s.APIToken,
	})
	if err != nil {
		// Nothing exists remotely yet, so the next Upload call just tries creating again
		return u.failTransfer(s, err)
	}

	s.RemoteUploadURL = uploadURL
	s.BytesSent = 0
	return nil
}

func (u *Uploader) transfer(ctx context.Context, s *Session, artifact io.ReaderAt, syncOffset bool) error {
	chunk := make([]byte, s.ChunkSize)
	failures := 0

	for {
		if err := ctx.Err(); err != nil {
			return u.interrupt(s, err)
		}

		if syncOffset {
			offset, err := u.readOffset(ctx, s)
			if err != nil {
				if retryErr := u.retryOrFail(ctx, s, err, &failures); retryErr != nil {
					return retryErr
				}
				continue
			}
			if offset > int64(s.TotalSize) {
				s.State = Failed
				uploads.WithLabelValues(outcomeRejected).Inc()
				return &UploadRejectedError{Err: fmt.Errorf("server has %v bytes of %v byte upload", offset, s.TotalSize)}
			}
			s.BytesSent = uint64(offset)
			syncOffset = false
		}

		if s.BytesSent >= s.TotalSize {
			return nil
		}

		n, err := artifact.ReadAt(chunk, int64(s.BytesSent))
		if err != nil && err != io.EOF {
			return pkgerrors.Wrap(err, "failed to read compressed payload")
		}

		offset, err := u.writeChunk(ctx, s, chunk[0:n])
		if err != nil {
			if retryErr := u.retryOrFail(ctx, s, err, &failures); retryErr != nil {
				return retryErr
			}
			// The write may have landed even though we didn't hear back, so ask where to continue
			syncOffset = true
			continue
		}

		if offset <= int64(s.BytesSent) || offset > int64(s.TotalSize) {
			// Server didn't accept what we sent the way we expected, trust its view of the offset
			syncOffset = true
			if retryErr := u.retryOrFail(ctx, s, fmt.Errorf("unexpected offset %v after writing at %v", offset, s.BytesSent), &failures); retryErr != nil {
				return retryErr
			}
			continue
		}

		bytesSent.Add(float64(uint64(offset) - s.BytesSent))
		chunksSent.Inc()
		s.BytesSent = uint64(offset)
		failures = 0

		u.log.Debugf("Uploaded %v of %v bytes", s.BytesSent, s.TotalSize)
		if u.cfg.Progress != nil {
			u.cfg.Progress(s.BytesSent, s.TotalSize)
		}
	}
}

func (u *Uploader) readOffset(ctx context.Context, s *Session) (int64, error) {
	chunkCtx, cancel := context.WithTimeout(ctx, u.cfg.ChunkTimeout)
	defer cancel()
	return u.endpoint.Offset(chunkCtx, s.RemoteUploadURL)
}

func (u *Uploader) writeChunk(ctx context.Context, s *Session, chunk []byte) (int64, error) {
	chunkCtx, cancel := context.WithTimeout(ctx, u.cfg.ChunkTimeout)
	defer cancel()
	return u.endpoint.WriteChunk(chunkCtx, s.RemoteUploadURL, int64(s.BytesSent), chunk)
}

// Returns nil if we should try again, otherwise the error to return from Upload
func (u *Uploader) retryOrFail(ctx context.Context, s *Session, err error, failures *int) error {
	if rejected := u.checkRejected(s, err); rejected != nil {
		return rejected
	}

	*failures++
	if *failures > u.cfg.MaxChunkRetries || ctx.Err() != nil {
		return u.interrupt(s, err)
	}

	chunkRetries.Inc()
	u.log.Infof("Upload request failed (attempt %v of %v), retrying: %v", *failures, u.cfg.MaxChunkRetries+1, err)

	if u.cfg.RetryDelay > 0 {
		select {
		case <-ctx.Done():
			return u.interrupt(s, ctx.Err())
		case <-time.After(u.cfg.RetryDelay):
		}
	}
	return nil
}

func (u *Uploader) failTransfer(s *Session, err error) error {
	if rejected := u.checkRejected(s, err); rejected != nil {
		return rejected
	}
	return u.interrupt(s, err)
}

func (u *Uploader) checkRejected(s *Session, err error) error {
	var statusErr errorwithstatus.Error
	if !errors.As(err, &statusErr) || !errorwithstatus.IsRejectedStatus(statusErr.Status()) {
		return nil
	}

	s.State = Failed
	uploads.WithLabelValues(outcomeRejected).Inc()
	u.log.Errorf("Upload for question \"%v\" rejected: %v", s.Question, err)
	return &UploadRejectedError{Status: statusErr.Status(), Err: err}
}

func (u *Uploader) interrupt(s *Session, err error) error {
	uploads.WithLabelValues(outcomeInterrupted).Inc()
	u.log.Errorf("Upload for question \"%v\" interrupted at %v of %v bytes: %v", s.Question, s.BytesSent, s.TotalSize, err)
	return &TransferInterruptedError{BytesSent: s.BytesSent, TotalSize: s.TotalSize, Err: err}
}

func (u *Uploader) finish(ctx context.Context, s *Session) error {
	s.State = Finishing

	err := u.meta.FinishUpload(ctx, s.UploadToken, UploadID(s.RemoteUploadURL), s.APIToken)
	if err != nil {
		s.State = Failed
		uploads.WithLabelValues(outcomeFinishFail).Inc()

		var finishErr *FinishFailedError
		if errors.As(err, &finishErr) {
			return finishErr
		}
		return &FinishFailedError{Reason: err.Error(), Err: err}
	}

	s.State = Completed
	uploads.WithLabelValues(outcomeCompleted).Inc()
	u.log.Infof("Completed upload of %v bytes for question \"%v\", annotation: %v", s.TotalSize, s.Question, s.AnnotationID)
	return nil
}

// Compresses payload into a new temp file. The output only depends on the payload, so resuming
// with the same payload produces the same bytes. Returns the path even on error if the file was
// created, so the caller can remove it.
func writeArtifact(dir string, payload []byte) (string, int64, error) {
	f, err := os.CreateTemp(dir, artifactPattern)
	if err != nil {
		return "", 0, pkgerrors.Wrap(err, "failed to create temp file for payload")
	}
	path := f.Name()

	zw := gzip.NewWriter(f)
	_, err = zw.Write(payload)
	if err == nil {
		err = zw.Close()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return path, 0, pkgerrors.Wrap(err, "failed to write compressed payload")
	}

	info, err := os.Stat(path)
	if err != nil {
		return path, 0, pkgerrors.Wrap(err, "failed to stat compressed payload")
	}
	return path, info.Size(), nil
}
