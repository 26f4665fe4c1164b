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

package slidescore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/slidescore/slidebridge/core/chunkupload"
)

// PostAnswer - sends an answer inline
func (c *Client) PostAnswer(ctx context.Context, question string, answer string) error {
	body, err := c.postForm(ctx, EndpointAnnoAnswer, url.Values{"question": {question}, "answer": {answer}})
	if err != nil {
		return err
	}

	// Older servers reply with plain text, newer ones with a status object
	if trimmed := strings.TrimSpace(string(body)); strings.HasPrefix(trimmed, "{") {
		resp := statusResponse{}
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("failed to parse answer response: %v", err)
		}
		if !resp.Success {
			return fmt.Errorf("answer for question \"%v\" rejected: %v", question, resp.Error)
		}
	}

	c.log.Infof("Posted %v byte answer for question \"%v\"", len(answer), question)
	return nil
}

type createAnno2Response struct {
	statusResponse
	UploadToken string `json:"uploadToken"`
	APIToken    string `json:"apiToken"`
	AnnoUUID    string `json:"annoUUID"`
}

// CreateUploadSession - creates the record a large answer is uploaded into
func (c *Client) CreateUploadSession(ctx context.Context, question string, tmaCoreID int) (chunkupload.Handle, error) {
	form := url.Values{"question": {question}}
	if tmaCoreID > 0 {
		form.Set("tmaCoreId", strconv.Itoa(tmaCoreID))
	}

	body, err := c.postForm(ctx, EndpointCreateAnno2, form)
	if err != nil {
		return chunkupload.Handle{}, &chunkupload.SessionCreateFailedError{Reason: err.Error(), Err: err}
	}

	resp := createAnno2Response{}
	if err := json.Unmarshal(body, &resp); err != nil {
		return chunkupload.Handle{}, &chunkupload.SessionCreateFailedError{Reason: fmt.Sprintf("invalid response: %v", err), Err: err}
	}
	if !resp.Success {
		return chunkupload.Handle{}, &chunkupload.SessionCreateFailedError{Reason: resp.Error}
	}

	c.log.Infof("Created anno2 record %v", resp.AnnoUUID)
	return chunkupload.Handle{UploadToken: resp.UploadToken, APIToken: resp.APIToken, AnnotationID: resp.AnnoUUID}, nil
}

// FinishUpload - tells the server all data for an upload has been sent
func (c *Client) FinishUpload(ctx context.Context, uploadToken string, uploadID string, apiToken string) error {
	body, err := c.postForm(ctx, EndpointFinishAnno2, url.Values{
		"uploadToken": {uploadToken},
		"uploadId":    {uploadID},
		"apiToken":    {apiToken},
	})
	if err != nil {
		return &chunkupload.FinishFailedError{Reason: err.Error(), Err: err}
	}

	resp := statusResponse{}
	if err := json.Unmarshal(body, &resp); err != nil {
		return &chunkupload.FinishFailedError{Reason: fmt.Sprintf("invalid response: %v", err), Err: err}
	}
	if !resp.Success {
		return &chunkupload.FinishFailedError{Reason: resp.Error}
	}
	return nil
}

// NewUploader - chunked uploader talking to this slide's server
func (c *Client) NewUploader(cfg chunkupload.Config) (*chunkupload.Uploader, error) {
	creationURL, err := c.UploadCreationURL()
	if err != nil {
		return nil, err
	}
	return chunkupload.NewUploader(c, chunkupload.NewTusEndpoint(creationURL, c.upload), cfg, c.log), nil
}
