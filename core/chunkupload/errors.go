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

import "fmt"

// SessionCreateFailedError - the metadata service wouldn't open an upload
type SessionCreateFailedError struct {
	Reason string
	Err    error
}

func (e *SessionCreateFailedError) Error() string {
	return fmt.Sprintf("failed to create upload session: %v", e.Reason)
}

func (e *SessionCreateFailedError) Unwrap() error {
	return e.Err
}

// FinishFailedError - all data was sent but the metadata service rejected completing the upload
type FinishFailedError struct {
	Reason string
	Err    error
}

func (e *FinishFailedError) Error() string {
	return fmt.Sprintf("failed to finish upload: %v", e.Reason)
}

func (e *FinishFailedError) Unwrap() error {
	return e.Err
}

// TransferInterruptedError - sending data failed in a way that may go away. The session is left
// in Uploading and can be passed to Upload again.
type TransferInterruptedError struct {
	BytesSent uint64
	TotalSize uint64
	Err       error
}

func (e *TransferInterruptedError) Error() string {
	return fmt.Sprintf("upload interrupted after %v of %v bytes: %v", e.BytesSent, e.TotalSize, e.Err)
}

func (e *TransferInterruptedError) Unwrap() error {
	return e.Err
}

// Retryable - always true, resuming the session is allowed
func (e *TransferInterruptedError) Retryable() bool {
	return true
}

// UploadRejectedError - the endpoint refused the upload for good (gone, too large, forbidden)
type UploadRejectedError struct {
	Status int
	Err    error
}

func (e *UploadRejectedError) Error() string {
	return fmt.Sprintf("upload rejected with status %v: %v", e.Status, e.Err)
}

func (e *UploadRejectedError) Unwrap() error {
	return e.Err
}
