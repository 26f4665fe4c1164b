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

// Bridge configuration as read from JSON/YAML files, overridable per field by environment
// variables, and the defaults applied on top
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/slidescore/slidebridge/core/logger"
	"gopkg.in/yaml.v3"
)

////////////////////////////////////////////////////////////////////////////////////////////////////////////
// Configuration for app

// BridgeConfig combines env vars and config file values
type BridgeConfig struct {
	// Slide metadata URL as given out by the slide-hosting service, ends in SlideScoreMetadata.json
	SlideURL string `json:"SlideURL" yaml:"SlideURL"`

	EnvironmentName string `json:"EnvironmentName" yaml:"EnvironmentName"`

	LogLevel  logger.LogLevel `json:"LogLevel" yaml:"LogLevel"`
	LogFormat string          `json:"LogFormat" yaml:"LogFormat"` // "text" (default) or "json"

	// Chunked upload tuning
	ChunkSizeBytes    uint32 `json:"ChunkSizeBytes" yaml:"ChunkSizeBytes"`
	ChunkTimeoutSec   uint32 `json:"ChunkTimeoutSec" yaml:"ChunkTimeoutSec"`
	MaxChunkRetries   int32  `json:"MaxChunkRetries" yaml:"MaxChunkRetries"`
	InlineAnswerLimit int32  `json:"InlineAnswerLimit" yaml:"InlineAnswerLimit"` // Answers longer than this go via chunked upload
	TempDir           string `json:"TempDir" yaml:"TempDir"`

	// Plain requests to the slide service
	HTTPTimeoutSec uint32 `json:"HTTPTimeoutSec" yaml:"HTTPTimeoutSec"`
	HTTPRetries    int32  `json:"HTTPRetries" yaml:"HTTPRetries"`

	// Where exports are written. If ExportBucket is set it's an S3 bucket, otherwise ExportRoot is
	// a local directory
	ExportBucket string `json:"ExportBucket" yaml:"ExportBucket"`
	ExportRoot   string `json:"ExportRoot" yaml:"ExportRoot"`
	AWSRegion    string `json:"AWSRegion" yaml:"AWSRegion"`

	SentryDSN   string `json:"SentryDSN" yaml:"SentryDSN"`
	MetricsAddr string `json:"MetricsAddr" yaml:"MetricsAddr"` // eg ":2112", empty to not serve /metrics

	// Questions we never want to offer for upload, comma separated in env vars
	IgnoredQuestions []string `json:"IgnoredQuestions" yaml:"IgnoredQuestions"`
}

// EnvPrefix - any field can be overridden by an env var named EnvPrefix+FieldName
const EnvPrefix = "SLIDEBRIDGE_CONFIG_"

const DefaultChunkSizeBytes = 5 * 1024 * 1024
const DefaultInlineAnswerLimit = 100000

func NewConfigFromFile(configFilePath string) (BridgeConfig, error) {
	var cfg BridgeConfig

	customConfig, err := os.ReadFile(configFilePath)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file at %s", configFilePath)
	}

	ext := strings.ToLower(filepath.Ext(configFilePath))
	if ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(customConfig, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse custom config: %v", err)
		}
		return applyEnv(cfg), nil
	}

	return buildConfig(customConfig)
}

func NewConfigFromJsonString(configJson string) (BridgeConfig, error) {
	return buildConfig([]byte(configJson))
}

// NewConfigFromEnv - no file at all, everything comes from SLIDEBRIDGE_CONFIG_* vars
func NewConfigFromEnv() BridgeConfig {
	return applyEnv(BridgeConfig{})
}

func buildConfig(configJson []byte) (BridgeConfig, error) {
	var cfg BridgeConfig

	err := json.Unmarshal(configJson, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse custom config: %v", err)
	}

	return applyEnv(cfg), nil
}

// Override Config with any values explicitly set in Env Vars (SLIDEBRIDGE_CONFIG_*)
// NOTE: For []string slices, pass in a comma-separated string to the corresponding var
//
//	Ex: export SLIDEBRIDGE_CONFIG_IgnoredQuestions="Grade,Comments"
func applyEnv(cfg BridgeConfig) BridgeConfig {
	reflection := reflect.ValueOf(&cfg).Elem()
	for i := 0; i < reflection.NumField(); i++ {
		fieldName := reflection.Type().Field(i).Name
		field := reflection.Field(i)
		val, present := os.LookupEnv(EnvPrefix + fieldName)
		if !present {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(val)
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				slicedVal := strings.Split(val, ",")
				field.Set(reflect.ValueOf(slicedVal))
			}
		case reflect.Bool:
			b, err := strconv.ParseBool(val)
			if err != nil {
				fmt.Printf("Could not cast value %v%s=%s to bool\n", EnvPrefix, fieldName, val)
				continue
			}
			field.SetBool(b)
		case reflect.Int, reflect.Int32:
			i, err := strconv.Atoi(val)
			if err != nil {
				// Log level can also be given by name
				if field.Type() == reflect.TypeOf(logger.LogInfo) {
					if lvl, lvlErr := logger.ParseLogLevel(val); lvlErr == nil {
						field.SetInt(int64(lvl))
						continue
					}
				}
				fmt.Printf("Could not cast value %v%s=%s to Int\n", EnvPrefix, fieldName, val)
				continue
			}
			field.SetInt(int64(i))
		case reflect.Uint32:
			u, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				fmt.Printf("Could not cast value %v%s=%s to Uint\n", EnvPrefix, fieldName, val)
				continue
			}
			field.SetUint(u)
		}
	}
	return cfg
}

// ApplyDefaults - fills in anything left unset with values that work against the
// production slide service
func (cfg *BridgeConfig) ApplyDefaults() {
	if cfg.ChunkSizeBytes <= 0 {
		cfg.ChunkSizeBytes = DefaultChunkSizeBytes
	}
	if cfg.ChunkTimeoutSec <= 0 {
		cfg.ChunkTimeoutSec = 60
	}
	if cfg.MaxChunkRetries <= 0 {
		cfg.MaxChunkRetries = 3
	}
	if cfg.InlineAnswerLimit <= 0 {
		cfg.InlineAnswerLimit = DefaultInlineAnswerLimit
	}
	if cfg.HTTPTimeoutSec <= 0 {
		cfg.HTTPTimeoutSec = 30
	}
	if cfg.HTTPRetries < 0 {
		cfg.HTTPRetries = 0
	} else if cfg.HTTPRetries == 0 {
		cfg.HTTPRetries = 2
	}
	if len(cfg.TempDir) <= 0 {
		cfg.TempDir = os.TempDir()
	}
	if len(cfg.LogFormat) <= 0 {
		cfg.LogFormat = "text"
	}
	if len(cfg.EnvironmentName) <= 0 {
		cfg.EnvironmentName = "local"
	}
}

// Validate - checks for combinations we can't work with
func (cfg BridgeConfig) Validate() error {
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LogFormat must be text or json, got: %v", cfg.LogFormat)
	}
	if len(cfg.SlideURL) > 0 && !strings.Contains(cfg.SlideURL, "SlideScoreMetadata") {
		return fmt.Errorf("SlideURL must point at SlideScoreMetadata, got: %v", cfg.SlideURL)
	}
	if len(cfg.ExportBucket) > 0 && len(cfg.AWSRegion) <= 0 {
		return fmt.Errorf("AWSRegion must be set when exporting to bucket %v", cfg.ExportBucket)
	}
	return nil
}

// MakeLogger - the logger the config asks for
func (cfg BridgeConfig) MakeLogger() (logger.ILogger, error) {
	if cfg.LogFormat == "json" {
		return logger.NewZapLogger(cfg.LogLevel, "env", cfg.EnvironmentName)
	}

	return &logger.StdOutLogger{Level: cfg.LogLevel}, nil
}
