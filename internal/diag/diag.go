// Copyright 2020 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package diag declares the diagnostics sink the engine and scheduler use
// to report format errors, missing artifacts, and incremental-build
// fallback decisions, without depending on any particular presentation.
package diag

import "go.uber.org/zap"

// Sink receives diagnostics. Warn is for recoverable downgrades (an input
// falls back to a full rebuild); Error is for conditions that invalidate
// the whole build's incremental state.
type Sink interface {
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is a typed key-value pair attached to a diagnostic, mirroring
// zap.Field so callers can build one set of fields and feed either a
// ZapSink or a test-only RecordingSink.
type Field = zap.Field

// String is a convenience re-export of zap.String, for callers that don't
// want to import zap directly just to build a Field.
func String(key, value string) Field { return zap.String(key, value) }

// Err is a convenience re-export of zap.Error.
func Err(err error) Field { return zap.Error(err) }

// Int is a convenience re-export of zap.Int.
func Int(key string, value int) Field { return zap.Int(key, value) }

// ZapSink adapts a *zap.Logger to Sink, the default used by cmd/driftc.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps logger as a Sink.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Warn(msg string, fields ...Field) {
	s.logger.Warn(msg, fields...)
}

func (s *ZapSink) Error(msg string, fields ...Field) {
	s.logger.Error(msg, fields...)
}

// RecordingSink collects diagnostics in memory, for tests that assert on
// what the scheduler reported without standing up a real logger.
type RecordingSink struct {
	Warnings []Entry
	Errors   []Entry
}

// Entry is one recorded diagnostic.
type Entry struct {
	Message string
	Fields  []Field
}

func (s *RecordingSink) Warn(msg string, fields ...Field) {
	s.Warnings = append(s.Warnings, Entry{Message: msg, Fields: fields})
}

func (s *RecordingSink) Error(msg string, fields ...Field) {
	s.Errors = append(s.Errors, Entry{Message: msg, Fields: fields})
}
