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

package errorwithstatus

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////////////////////////////////
// Errors carrying the HTTP status the remote service replied with

// Error represents an error with an HTTP status code attached. It provides
// methods for the code and embeds the built-in error interface.
type Error interface {
	error
	Status() int
}

// StatusError represents an error with an associated HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

// Allows StatusError to satisfy the error interface.
func (se StatusError) Error() string {
	return se.Err.Error()
}

// Status - Returns our HTTP status code.
func (se StatusError) Status() int {
	return se.Code
}

func (se StatusError) Unwrap() error {
	return se.Err
}

// Some common errors
func MakeNotFoundError(ID string) StatusError {
	return StatusError{
		Code: http.StatusNotFound,
		Err:  fmt.Errorf("%v not found", ID),
	}
}

func MakeBadRequestError(err error) StatusError {
	return StatusError{
		Code: http.StatusBadRequest,
		Err:  err,
	}
}

// Mainly so we don't get a bunch of errors for not using field names in StatusError{}
func MakeStatusError(code int, err error) StatusError {
	return StatusError{
		Code: code,
		Err:  err,
	}
}

// MakeResponseError - builds a StatusError out of a non-success response, including
// the start of the body because the remote service puts its reason text there
func MakeResponseError(what string, resp *http.Response) StatusError {
	body := ""
	if resp.Body != nil {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		body = strings.TrimSpace(string(b))
	}

	msg := fmt.Sprintf("%v failed with status %v", what, resp.StatusCode)
	if len(body) > 0 {
		msg += ": " + body
	}
	return StatusError{Code: resp.StatusCode, Err: fmt.Errorf("%v", msg)}
}

// IsRejectedStatus - true for statuses meaning the request was refused for good and sending
// it again won't help. Everything else (server trouble, timeouts, conflicts) may go away.
func IsRejectedStatus(code int) bool {
	switch code {
	case http.StatusForbidden,
		http.StatusNotFound,
		http.StatusGone,
		http.StatusRequestEntityTooLarge:
		return true
	}
	return false
}
