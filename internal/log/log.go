// Copyright 2022 The Project Oak Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log wraps go.uber.org/zap into the small structured-logging
// interface the rest of this module depends on, so call sites never import
// zap directly.
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface used throughout authlogic.
type Logger interface {
	Infow(msg string, keyvals ...interface{})
	Warnw(msg string, keyvals ...interface{})
	Errorw(msg string, keyvals ...interface{})
	Fatalw(msg string, keyvals ...interface{})
	With(args ...interface{}) Logger
	Named(s string) Logger
}

type log struct {
	*zap.SugaredLogger
}

func (l *log) With(args ...interface{}) Logger { return &log{l.SugaredLogger.With(args...)} }
func (l *log) Named(s string) Logger           { return &log{l.SugaredLogger.Named(s)} }

// New returns a Logger writing JSON-encoded records to output at the given
// zapcore level.
func New(output zapcore.WriteSyncer, level zapcore.Level) Logger {
	if output == nil {
		output = zapcore.AddSync(os.Stderr)
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), output, level)
	return &log{zap.New(core, zap.WithCaller(true)).Sugar()}
}

var (
	defaultOnce   sync.Once
	defaultLogger Logger
)

// Default returns a process-wide Logger at info level, writing to stderr.
func Default() Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(nil, zapcore.InfoLevel)
	})
	return defaultLogger
}
