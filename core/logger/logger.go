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

// Levelled logging interface used by every package in slidebridge, with a few
// implementations to pick from at startup (plain stdout, zap JSON, null, capture)
package logger

import (
	"fmt"
	"log"
	"strings"
)

// LogLevel - log level type
type LogLevel int

const (

	// LogDebug - DEBUG log level
	LogDebug LogLevel = iota

	// LogInfo - INFO log level
	LogInfo LogLevel = iota

	// LogWarn - WARN log level, something odd that we carried on past
	LogWarn LogLevel = iota

	// LogError - ERROR log level (does not call os.Exit!)
	LogError LogLevel = iota
)

var logLevelPrefix = map[LogLevel]string{
	LogDebug: "DEBUG",
	LogInfo:  "INFO",
	LogWarn:  "WARN",
	LogError: "ERROR",
}

// ILogger - Generic logger interface
type ILogger interface {
	Printf(level LogLevel, format string, a ...interface{})
	Debugf(format string, a ...interface{})
	Infof(format string, a ...interface{})
	Warnf(format string, a ...interface{})
	Errorf(format string, a ...interface{})
}

// ParseLogLevel - accepts the prefix names (DEBUG, INFO...) in any case
func ParseLogLevel(name string) (LogLevel, error) {
	for level, prefix := range logLevelPrefix {
		if strings.EqualFold(prefix, strings.TrimSpace(name)) {
			return level, nil
		}
	}
	return LogInfo, fmt.Errorf("unknown log level: %v", name)
}

func (l LogLevel) String() string {
	if prefix, ok := logLevelPrefix[l]; ok {
		return prefix
	}
	return fmt.Sprintf("LEVEL(%v)", int(l))
}

func formatLine(level LogLevel, format string, a ...interface{}) string {
	return level.String() + ": " + fmt.Sprintf(format, a...)
}

// StdOutLogger - text lines through the standard log package. Anything below Level is dropped
type StdOutLogger struct {
	Level LogLevel
}

func (l *StdOutLogger) Printf(level LogLevel, format string, a ...interface{}) {
	if level >= l.Level {
		log.Println(formatLine(level, format, a...))
	}
}
func (l *StdOutLogger) Debugf(format string, a ...interface{}) { l.Printf(LogDebug, format, a...) }
func (l *StdOutLogger) Infof(format string, a ...interface{})  { l.Printf(LogInfo, format, a...) }
func (l *StdOutLogger) Warnf(format string, a ...interface{})  { l.Printf(LogWarn, format, a...) }
func (l *StdOutLogger) Errorf(format string, a ...interface{}) { l.Printf(LogError, format, a...) }

// NullLogger - drops everything
type NullLogger struct{}

func (l *NullLogger) Printf(level LogLevel, format string, a ...interface{}) {}
func (l *NullLogger) Debugf(format string, a ...interface{})                 {}
func (l *NullLogger) Infof(format string, a ...interface{})                  {}
func (l *NullLogger) Warnf(format string, a ...interface{})                  {}
func (l *NullLogger) Errorf(format string, a ...interface{})                 {}
