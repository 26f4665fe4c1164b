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

// Writes imported annotations out to a FileAccess (local directory or S3 bucket) so they can be
// picked up by other tools or uploaded again later. Each export is a directory:
//
//	<root>/<slide id>/<export id>/annotations.json  - array of wire JSON arrays, one per annotation
//	<root>/<slide id>/<export id>/manifest.json     - where it came from, written last
//
// Annotations are encoded one by one, so brush regions of different answers keep their own
// name and colour instead of being merged into one brush entry.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/slidescore/slidebridge/core/annotationjson"
	"github.com/slidescore/slidebridge/core/fileaccess"
	"github.com/slidescore/slidebridge/core/idgen"
	"github.com/slidescore/slidebridge/core/logger"
	"github.com/slidescore/slidebridge/core/timestamper"
)

const AnnotationsFileName = "annotations.json"
const ManifestFileName = "manifest.json"

var ErrExportNotFound = errors.New("export not found")

// Manifest - describes one export. Callers fill in the source fields, the rest is set by Export
type Manifest struct {
	ID       string `json:"id"`
	SlideID  string `json:"slideId"`
	SlideURL string `json:"slideUrl,omitempty"`

	// What the answers were filtered by, empty for all
	Question string `json:"question,omitempty"`
	Email    string `json:"email,omitempty"`

	AnswerCount     int    `json:"answerCount"`
	AnnotationCount int    `json:"annotationCount"`
	CreatedUnixSec  int64  `json:"createdUnixSec"`
	Created         string `json:"created"`
}

type Exporter struct {
	fs          fileaccess.FileAccess
	bucket      string
	root        string
	idGen       idgen.IDGenerator
	timeStamper timestamper.ITimeStamper
	log         logger.ILogger
}

// NewExporter - bucket is the S3 bucket, or for local file access the directory to write in.
// root is the path prefix within it, may be empty
func NewExporter(fs fileaccess.FileAccess, bucket string, root string, idGen idgen.IDGenerator, timeStamper timestamper.ITimeStamper, log logger.ILogger) *Exporter {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Exporter{
		fs:          fs,
		bucket:      bucket,
		root:        strings.Trim(root, "/"),
		idGen:       idGen,
		timeStamper: timeStamper,
		log:         log,
	}
}

func (e *Exporter) slidePath(slideID string) string {
	return path.Join(e.root, fileaccess.MakeValidObjectName(slideID))
}

func (e *Exporter) exportPath(slideID string, exportID string) string {
	return path.Join(e.slidePath(slideID), fileaccess.MakeValidObjectName(exportID))
}

// Export - writes the annotations and a manifest built from info. Returns the manifest as written
func (e *Exporter) Export(info Manifest, annotations []annotationjson.Annotation) (Manifest, error) {
	if len(info.SlideID) <= 0 {
		return Manifest{}, errors.New("export requires a slide id")
	}

	encoded := make([]string, 0, len(annotations))
	for c, anno := range annotations {
		wire, err := annotationjson.EncodeAnnotations([]annotationjson.Annotation{anno}, annotationjson.EncodeOptions{})
		if err != nil {
			return Manifest{}, fmt.Errorf("failed to encode annotation %v for export: %v", c, err)
		}
		encoded = append(encoded, wire)
	}

	info.ID = e.idGen.GenObjectID()
	info.AnnotationCount = len(annotations)
	info.CreatedUnixSec = e.timeStamper.GetTimeNowSec()
	info.Created = timestamper.FormatUTC(info.CreatedUnixSec)

	dir := e.exportPath(info.SlideID, info.ID)
	if err := e.fs.WriteObject(e.bucket, path.Join(dir, AnnotationsFileName), []byte("["+strings.Join(encoded, ",")+"]")); err != nil {
		return Manifest{}, err
	}
	if err := e.fs.WriteJSON(e.bucket, path.Join(dir, ManifestFileName), info); err != nil {
		return Manifest{}, err
	}

	e.log.Infof("Exported %v annotations for slide %v to %v", info.AnnotationCount, info.SlideID, dir)
	return info, nil
}

// List - manifests of all exports of a slide, oldest first
func (e *Exporter) List(slideID string) ([]Manifest, error) {
	paths, err := e.fs.ListObjects(e.bucket, e.slidePath(slideID)+"/")
	if err != nil {
		return nil, err
	}

	result := []Manifest{}
	for _, p := range paths {
		if path.Base(p) != ManifestFileName {
			continue
		}

		m := Manifest{}
		if err := e.fs.ReadJSON(e.bucket, p, &m, false); err != nil {
			// Export being written or half deleted, skip it
			e.log.Warnf("Failed to read export manifest %v: %v", p, err)
			continue
		}
		result = append(result, m)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedUnixSec != result[j].CreatedUnixSec {
			return result[i].CreatedUnixSec < result[j].CreatedUnixSec
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Load - reads an export back
func (e *Exporter) Load(slideID string, exportID string) (Manifest, *annotationjson.Decoded, error) {
	dir := e.exportPath(slideID, exportID)

	m := Manifest{}
	if err := e.fs.ReadJSON(e.bucket, path.Join(dir, ManifestFileName), &m, false); err != nil {
		if e.fs.IsNotFoundError(err) {
			return m, nil, fmt.Errorf("%w: %v for slide %v", ErrExportNotFound, exportID, slideID)
		}
		return m, nil, err
	}

	data, err := e.fs.ReadObject(e.bucket, path.Join(dir, AnnotationsFileName))
	if err != nil {
		return m, nil, err
	}

	decoded, err := decodeExported(data)
	if err != nil {
		return m, nil, fmt.Errorf("export %v for slide %v: %w", exportID, slideID, err)
	}
	return m, decoded, nil
}

// Each group was encoded from one annotation. Only a Points annotation encodes to more than
// one entry (a marker per point), so a group of several markers is turned back into Points.
func decodeExported(data []byte) (*annotationjson.Decoded, error) {
	groups := []json.RawMessage{}
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("%w: %v", annotationjson.ErrMalformedPayload, err)
	}

	result := &annotationjson.Decoded{Annotations: []annotationjson.Annotation{}, Warnings: []*annotationjson.UnknownShapeTypeError{}}
	for c, group := range groups {
		decoded, err := annotationjson.Decode(group)
		if err != nil {
			return nil, fmt.Errorf("annotation %v: %w", c, err)
		}
		result.Warnings = append(result.Warnings, decoded.Warnings...)

		if len(decoded.Annotations) > 1 {
			shapes := annotationjson.CollapsePointMarkers(decoded.Shapes())
			if len(shapes) == 1 {
				anno := decoded.Annotations[0]
				anno.Shape = shapes[0]
				decoded.Annotations = []annotationjson.Annotation{anno}
			}
		}
		result.Annotations = append(result.Annotations, decoded.Annotations...)
	}
	return result, nil
}

// Remove - deletes an export, manifest first so a partly removed export is no longer listed
func (e *Exporter) Remove(slideID string, exportID string) error {
	dir := e.exportPath(slideID, exportID)

	exists, err := e.fs.ObjectExists(e.bucket, path.Join(dir, ManifestFileName))
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %v for slide %v", ErrExportNotFound, exportID, slideID)
	}

	if err := e.fs.DeleteObject(e.bucket, path.Join(dir, ManifestFileName)); err != nil {
		return err
	}
	if err := e.fs.DeleteObject(e.bucket, path.Join(dir, AnnotationsFileName)); err != nil && !e.fs.IsNotFoundError(err) {
		return err
	}

	e.log.Infof("Removed export %v of slide %v", exportID, slideID)
	return nil
}
