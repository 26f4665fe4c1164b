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

// Client for the slide server, bound to one slide's metadata URL
// (https://host/i/<...>/SlideScoreMetadata.json). Other endpoints for the slide live next to it
// and are found by swapping the SlideScoreMetadata part of the URL for the endpoint name.
package slidescore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/rehttp"
	"github.com/pkg/errors"
	"github.com/slidescore/slidebridge/core/errorwithstatus"
	"github.com/slidescore/slidebridge/core/logger"
)

const metadataEndpoint = "SlideScoreMetadata"
const metadataFile = metadataEndpoint + ".json"

// Endpoint names, relative to the slide URL
const (
	EndpointTMAPositions = "TMAPositions"
	EndpointAnswers      = "Answers"
	EndpointQuestions    = "Questions"
	EndpointAnnoAnswer   = "AnnoAnswer"
	EndpointCreateAnno2  = "CreateAnno2"
	EndpointFinishAnno2  = "FinishAnno2Upload"
)

// ErrSlideUnavailable - the server can't open the slide, usually because the link has expired
var ErrSlideUnavailable = errors.New("slide is not available on the server, the link may have expired")

type ClientOptions struct {
	// Applies to API calls, not upload chunks
	Timeout time.Duration
	// Retries of GET/HEAD requests on temporary network errors and 502/503/504
	Retries        int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// Underlying transport, nil for http.DefaultTransport
	Transport http.RoundTripper
}

type Client struct {
	slideURL *url.URL
	api      *http.Client
	upload   *http.Client
	log      logger.ILogger

	tileRequestLogged sync.Once

	mutex       sync.Mutex
	unavailable bool
}

// SupportsURL - is this a slide metadata URL we can open
func SupportsURL(slideURL string) bool {
	u, err := url.Parse(slideURL)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Scheme, "http") && strings.HasSuffix(slideURL, metadataFile)
}

func NewClient(slideURL string, opts ClientOptions, log logger.ILogger) (*Client, error) {
	if !strings.Contains(slideURL, metadataEndpoint) {
		return nil, fmt.Errorf("slide URL must point at %v: %v", metadataFile, slideURL)
	}

	u, err := url.Parse(slideURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid slide URL: %v", slideURL)
	}

	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 200 * time.Millisecond
	}
	if opts.RetryMaxDelay <= 0 {
		opts.RetryMaxDelay = 5 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if log == nil {
		log = &logger.NullLogger{}
	}

	transport := rehttp.NewTransport(
		opts.Transport,
		rehttp.RetryAll(
			rehttp.RetryMaxRetries(opts.Retries),
			rehttp.RetryHTTPMethods(http.MethodGet, http.MethodHead),
			rehttp.RetryAny(
				rehttp.RetryTemporaryErr(),
				rehttp.RetryStatuses(http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout),
			),
		),
		rehttp.ExpJitterDelay(opts.RetryBaseDelay, opts.RetryMaxDelay),
	)

	return &Client{
		slideURL: u,
		api:      &http.Client{Transport: transport, Timeout: opts.Timeout},
		upload:   &http.Client{Transport: transport},
		log:      log,
	}, nil
}

// SlideURL - the metadata URL this client was made for
func (c *Client) SlideURL() string {
	return c.slideURL.String()
}

// EndpointURL - URL of a named endpoint for this slide
func (c *Client) EndpointURL(name string) string {
	return strings.ReplaceAll(c.slideURL.String(), metadataEndpoint, name)
}

// AppRoot - server URL up to the /i/ part of the slide URL
func (c *Client) AppRoot() (string, error) {
	s := c.slideURL.String()
	idx := strings.Index(s, "/i/")
	if idx < 0 {
		return "", fmt.Errorf("slide URL has no /i/ part: %v", s)
	}
	return s[0:idx], nil
}

// SlideID - the path segment after /i/, which identifies the slide within the app
func (c *Client) SlideID() (string, error) {
	parts := strings.Split(c.slideURL.Path, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "i" && len(parts[i+1]) > 0 {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("slide URL has no slide id: %v", c.slideURL.String())
}

// UploadCreationURL - where resumable uploads are created
func (c *Client) UploadCreationURL() (*url.URL, error) {
	root, err := c.AppRoot()
	if err != nil {
		return nil, err
	}
	return url.Parse(root + "/files")
}

// Unavailable - true once the server has told us it can't serve the slide
func (c *Client) Unavailable() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.unavailable
}

func (c *Client) markUnavailable() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.unavailable = true
}

func (c *Client) get(ctx context.Context, what string, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get %v", what)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorwithstatus.MakeResponseError("get "+what, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %v", what)
	}
	return body, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.EndpointURL(endpoint), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to post %v", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorwithstatus.MakeResponseError("post "+endpoint, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %v response", endpoint)
	}
	return body, nil
}

// Success flags come back as true or "true" depending on server version
type successFlag bool

func (f *successFlag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = successFlag(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("success flag must be bool or string, got: %v", string(data))
	}
	*f = successFlag(strings.EqualFold(strings.TrimSpace(s), "true"))
	return nil
}

type statusResponse struct {
	Success successFlag `json:"success"`
	Error   string      `json:"error"`
}
