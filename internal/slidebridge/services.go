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

package main

import (
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/slidescore/slidebridge/core/answers"
	"github.com/slidescore/slidebridge/core/awsutil"
	"github.com/slidescore/slidebridge/core/chunkupload"
	"github.com/slidescore/slidebridge/core/export"
	"github.com/slidescore/slidebridge/core/fileaccess"
	"github.com/slidescore/slidebridge/core/idgen"
	"github.com/slidescore/slidebridge/core/slidescore"
	"github.com/slidescore/slidebridge/core/timestamper"
)

// Local exports go here if neither ExportBucket nor ExportRoot are configured
const defaultExportDir = "exports"

func (a *app) client() (*slidescore.Client, error) {
	if len(a.cfg.SlideURL) <= 0 {
		return nil, errors.New("no slide URL, set --slide-url or SLIDEBRIDGE_CONFIG_SlideURL")
	}

	return slidescore.NewClient(a.cfg.SlideURL, slidescore.ClientOptions{
		Timeout: time.Duration(a.cfg.HTTPTimeoutSec) * time.Second,
		Retries: int(a.cfg.HTTPRetries),
	}, a.log)
}

func (a *app) answerRouter(c *slidescore.Client) (*answers.Router, error) {
	uploader, err := c.NewUploader(chunkupload.Config{
		ChunkSize:       a.cfg.ChunkSizeBytes,
		ChunkTimeout:    time.Duration(a.cfg.ChunkTimeoutSec) * time.Second,
		MaxChunkRetries: int(a.cfg.MaxChunkRetries),
		TempDir:         a.cfg.TempDir,
		Progress: func(sent uint64, total uint64) {
			a.log.Debugf("Uploaded %v of %v bytes", sent, total)
		},
	})
	if err != nil {
		return nil, err
	}

	r := answers.NewRouter(c, uploader, a.log)
	r.InlineLimit = int(a.cfg.InlineAnswerLimit)
	return r, nil
}

// exporter - S3 if a bucket is configured (or ExportRoot is an s3:// url), otherwise a local directory
func (a *app) exporter() (*export.Exporter, error) {
	bucket := a.cfg.ExportBucket
	root := a.cfg.ExportRoot

	if strings.HasPrefix(root, "s3://") {
		var err error
		bucket, root, err = fileaccess.SplitS3URL(root)
		if err != nil {
			return nil, err
		}
	}

	if len(bucket) > 0 {
		s3svc, err := awsutil.GetS3ForRegion(a.cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		s3Access := fileaccess.MakeS3Access(s3svc)
		s3Access.ServerSideEncryption = s3.ServerSideEncryptionAes256
		return export.NewExporter(s3Access, bucket, root, &idgen.IDGen{}, &timestamper.UnixTimeNowStamper{}, a.log), nil
	}

	if len(root) <= 0 {
		root = defaultExportDir
	}
	return export.NewExporter(&fileaccess.FSAccess{}, root, "", &idgen.IDGen{}, &timestamper.UnixTimeNowStamper{}, a.log), nil
}

// Slide id used to group exports, from the configured slide URL
func (a *app) slideID() (string, error) {
	c, err := a.client()
	if err != nil {
		return "", err
	}
	return c.SlideID()
}

func (a *app) ignored(question string) bool {
	for _, q := range a.cfg.IgnoredQuestions {
		if strings.EqualFold(strings.TrimSpace(q), question) {
			return true
		}
	}
	return false
}
