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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bytesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slidebridge_upload_bytes_sent_total",
		Help: "Compressed payload bytes acknowledged by the upload endpoint.",
	})
	chunksSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slidebridge_upload_chunks_total",
		Help: "Chunks acknowledged by the upload endpoint.",
	})
	chunkRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slidebridge_upload_chunk_retries_total",
		Help: "Failed chunk or offset requests that were retried.",
	})
	uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slidebridge_uploads_total",
		Help: "Upload attempts by outcome.",
	}, []string{"outcome"})
)

const (
	outcomeCompleted   = "completed"
	outcomeInterrupted = "interrupted"
	outcomeRejected    = "rejected"
	outcomeFinishFail  = "finish_failed"
	outcomeCreateFail  = "create_failed"
)
