// Package testutil provides test helpers shared across packages.
package testutil

import (
	"sync"

	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
)

// LogEntry is one entry captured by RecordingLogger.
type LogEntry struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// RecordingLogger implements logging.Logger and keeps every entry in memory.
// Children created by With and Named share the parent's buffer.
type RecordingLogger struct {
	sink   *logSink
	name   string
	fields []logging.Field
}

type logSink struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewRecordingLogger returns an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{sink: &logSink{}}
}

func (r *RecordingLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(r.fields)+len(fields))
	all = append(all, r.fields...)
	all = append(all, fields...)

	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()
	r.sink.entries = append(r.sink.entries, LogEntry{Level: level, Logger: r.name, Message: msg, Fields: all})
}

func (r *RecordingLogger) Debug(msg string, fields ...logging.Field) { r.log("debug", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...logging.Field)  { r.log("info", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...logging.Field)  { r.log("warn", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...logging.Field) { r.log("error", msg, fields) }
func (r *RecordingLogger) Fatal(msg string, fields ...logging.Field) { r.log("fatal", msg, fields) }

func (r *RecordingLogger) With(fields ...logging.Field) logging.Logger {
	child := *r
	child.fields = append(append([]logging.Field(nil), r.fields...), fields...)
	return &child
}

func (r *RecordingLogger) Named(name string) logging.Logger {
	child := *r
	if r.name == "" {
		child.name = name
	} else {
		child.name = r.name + "." + name
	}
	return &child
}

// Entries returns a copy of the captured entries.
func (r *RecordingLogger) Entries() []LogEntry {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()
	return append([]LogEntry(nil), r.sink.entries...)
}

// Has reports whether an entry with level and msg was captured.
func (r *RecordingLogger) Has(level, msg string) bool {
	for _, e := range r.Entries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

// Field returns the value of key on the first entry with msg.
func (r *RecordingLogger) Field(msg, key string) (interface{}, bool) {
	for _, e := range r.Entries() {
		if e.Message != msg {
			continue
		}
		for _, f := range e.Fields {
			if f.Key == key {
				return f.Value, true
			}
		}
	}
	return nil, false
}

// Reset drops every captured entry.
func (r *RecordingLogger) Reset() {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()
	r.sink.entries = nil
}
