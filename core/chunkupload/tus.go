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
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/slidescore/slidebridge/core/errorwithstatus"
)

const tusVersion = "1.0.0"

// TusEndpoint - client for the core tus 1.0.0 protocol: create (POST), offset (HEAD) and
// chunk upload (PATCH). Uploads are created under CreationURL.
type TusEndpoint struct {
	CreationURL *url.URL
	Client      *http.Client
}

func NewTusEndpoint(creationURL *url.URL, client *http.Client) *TusEndpoint {
	if client == nil {
		client = http.DefaultClient
	}
	return &TusEndpoint{CreationURL: creationURL, Client: client}
}

func (t *TusEndpoint) Create(ctx context.Context, size int64, metadata map[string]string) (*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.CreationURL.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Tus-Resumable", tusVersion)
	req.Header.Set("Upload-Length", strconv.FormatInt(size, 10))
	if len(metadata) > 0 {
		req.Header.Set("Upload-Metadata", encodeMetadata(metadata))
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create upload")
	}
	defer drainAndClose(resp)

	if resp.StatusCode != http.StatusCreated {
		return nil, errorwithstatus.MakeResponseError("create upload", resp)
	}

	loc := resp.Header.Get("Location")
	if len(loc) <= 0 {
		return nil, fmt.Errorf("create upload response had no Location")
	}

	uploadURL, err := t.CreationURL.Parse(loc)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid upload location: %v", loc)
	}
	return uploadURL, nil
}

func (t *TusEndpoint) Offset(ctx context.Context, uploadURL *url.URL) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, uploadURL.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Tus-Resumable", tusVersion)
	req.Header.Set("Cache-Control", "no-store")

	resp, err := t.Client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read upload offset")
	}
	defer drainAndClose(resp)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return 0, errorwithstatus.MakeResponseError("read upload offset", resp)
	}
	return readOffsetHeader(resp)
}

func (t *TusEndpoint) WriteChunk(ctx context.Context, uploadURL *url.URL, offset int64, chunk []byte) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, uploadURL.String(), bytes.NewReader(chunk))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Tus-Resumable", tusVersion)
	req.Header.Set("Content-Type", "application/offset+octet-stream")
	req.Header.Set("Upload-Offset", strconv.FormatInt(offset, 10))

	resp, err := t.Client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to upload chunk at offset %v", offset)
	}
	defer drainAndClose(resp)

	if resp.StatusCode != http.StatusNoContent {
		return 0, errorwithstatus.MakeResponseError(fmt.Sprintf("upload chunk at offset %v", offset), resp)
	}
	return readOffsetHeader(resp)
}

func readOffsetHeader(resp *http.Response) (int64, error) {
	offsetStr := resp.Header.Get("Upload-Offset")
	offset, err := strconv.ParseInt(offsetStr, 10, 64)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid Upload-Offset: \"%v\"", offsetStr)
	}
	return offset, nil
}

// Sorted so the header is the same every time
func encodeMetadata(metadata map[string]string) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+base64.StdEncoding.EncodeToString([]byte(metadata[k])))
	}
	return strings.Join(parts, ",")
}

// DecodeMetadata - parses an Upload-Metadata header value
func DecodeMetadata(header string) (map[string]string, error) {
	result := map[string]string{}
	if len(strings.TrimSpace(header)) <= 0 {
		return result, nil
	}

	for _, pair := range strings.Split(header, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), " ", 2)
		val := []byte{}
		if len(parts) > 1 {
			var err error
			val, err = base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				return nil, fmt.Errorf("invalid metadata value for %v: %v", parts[0], err)
			}
		}
		result[parts[0]] = string(val)
	}
	return result, nil
}

// UploadID - the id the metadata service knows an upload by, the last part of its URL
func UploadID(uploadURL *url.URL) string {
	p := uploadURL.Path
	if idx := strings.LastIndex(p, "/files/"); idx >= 0 {
		return p[idx+len("/files/"):]
	}
	return p[strings.LastIndex(p, "/")+1:]
}

func drainAndClose(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
