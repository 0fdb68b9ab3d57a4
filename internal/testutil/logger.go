package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// RecordingLogger captures log calls for assertions. It satisfies config.Logger.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogEntry is one captured log call.
type LogEntry struct {
	Level   string
	Message string
	KV      []interface{}
}

// NewRecordingLogger returns an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (r *RecordingLogger) Debug(msg string, kv ...interface{}) { r.record("debug", msg, kv) }
func (r *RecordingLogger) Info(msg string, kv ...interface{})  { r.record("info", msg, kv) }
func (r *RecordingLogger) Warn(msg string, kv ...interface{})  { r.record("warn", msg, kv) }
func (r *RecordingLogger) Error(msg string, kv ...interface{}) { r.record("error", msg, kv) }

func (r *RecordingLogger) record(level, msg string, kv []interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, LogEntry{Level: level, Message: msg, KV: kv})
}

// Entries returns a copy of every captured call.
func (r *RecordingLogger) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Messages returns the messages logged at level.
func (r *RecordingLogger) Messages(level string) []string {
	var msgs []string
	for _, e := range r.Entries() {
		if e.Level == level {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// String renders all entries, one per line, for test failure output.
func (r *RecordingLogger) String() string {
	var b strings.Builder
	for _, e := range r.Entries() {
		fmt.Fprintf(&b, "%s %s %v\n", e.Level, e.Message, e.KV)
	}
	return b.String()
}
