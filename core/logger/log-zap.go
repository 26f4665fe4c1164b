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

package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger - structured JSON output, for when logs are shipped somewhere that parses them
type ZapLogger struct {
	logger *zap.SugaredLogger
}

var zapLevels = map[LogLevel]zapcore.Level{
	LogDebug: zapcore.DebugLevel,
	LogInfo:  zapcore.InfoLevel,
	LogWarn:  zapcore.WarnLevel,
	LogError: zapcore.ErrorLevel,
}

// NewZapLogger - production zap config writing JSON to stderr at the given level
func NewZapLogger(level LogLevel, fields ...interface{}) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevels[level])
	cfg.DisableStacktrace = true

	zl, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %v", err)
	}

	return &ZapLogger{logger: zl.Sugar().With(fields...)}, nil
}

func (l *ZapLogger) Printf(level LogLevel, format string, a ...interface{}) {
	switch level {
	case LogDebug:
		l.logger.Debugf(format, a...)
	case LogInfo:
		l.logger.Infof(format, a...)
	case LogWarn:
		l.logger.Warnf(format, a...)
	default:
		l.logger.Errorf(format, a...)
	}
}
func (l *ZapLogger) Debugf(format string, a ...interface{}) {
	l.Printf(LogDebug, format, a...)
}
func (l *ZapLogger) Infof(format string, a ...interface{}) {
	l.Printf(LogInfo, format, a...)
}
func (l *ZapLogger) Warnf(format string, a ...interface{}) {
	l.Printf(LogWarn, format, a...)
}
func (l *ZapLogger) Errorf(format string, a ...interface{}) {
	l.Printf(LogError, format, a...)
}

// Close - flushes anything zap buffered
func (l *ZapLogger) Close() {
	l.logger.Sync()
}
