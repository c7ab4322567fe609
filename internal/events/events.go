// Package events publishes run lifecycle notifications so other processes
// (dashboards, notifiers) can follow subburn runs. Publishing is best effort:
// a failed publish is logged by the caller and never fails a run.
package events

import (
	"context"
	"strings"
	"time"
)

// Type names a lifecycle event.
type Type string

const (
	TypeProcessingStarted   Type = "processing_started"
	TypeStageChanged        Type = "stage_changed"
	TypeProcessingCompleted Type = "processing_completed"
	TypeProcessingFailed    Type = "processing_failed"
)

// Event is the JSON payload published for each lifecycle change.
type Event struct {
	Type       Type      `json:"type"`
	RunID      string    `json:"run_id"`
	InputPath  string    `json:"input_path"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// Subject returns the subject an event type is published on.
func Subject(prefix string, typ Type) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return string(typ)
	}
	return prefix + "." + string(typ)
}
