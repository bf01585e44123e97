// Package history records every tool execution of a session to an
// audit log. Task results themselves are never persisted; the log only
// captures which tools ran, with what arguments, and how they ended.
package history

import "time"

// Record is one tool execution.
type Record struct {
	Seq       uint64         `json:"seq"`
	Time      time.Time      `json:"time"`
	TaskID    string         `json:"taskId,omitempty"` // empty for the parent conversation
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args,omitempty"`
	OK        bool           `json:"ok"`
	ErrorKind string         `json:"errorKind,omitempty"`
	Duration  time.Duration  `json:"duration"`
}

// Recorder appends and reads execution records. Implementations must be
// safe for concurrent use: the parent and every sub-agent share one
// recorder.
type Recorder interface {
	// Append stores a record, assigning its sequence number.
	Append(rec *Record) error

	// Recent returns up to limit records, newest last.
	Recent(limit int) ([]*Record, error)

	// Close releases underlying resources.
	Close() error
}

// Nop is a Recorder that discards everything. Used in tests and when
// no history file is configured.
type Nop struct{}

func (Nop) Append(*Record) error          { return nil }
func (Nop) Recent(int) ([]*Record, error) { return nil, nil }
func (Nop) Close() error                  { return nil }
