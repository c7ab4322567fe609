package history

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a run.
type Status string

const (
	StatusPending      Status = "pending"
	StatusExtracting   Status = "extracting"
	StatusTranscribing Status = "transcribing"
	StatusLocating     Status = "locating"
	StatusBurning      Status = "burning"
	StatusCleaning     Status = "cleaning"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusTranscribing,
	StatusLocating,
	StatusBurning,
	StatusCleaning,
	StatusCompleted,
	StatusFailed,
}

// AllStatuses returns every known status in pipeline order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a string to a Status, reporting whether it is known.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether a run in this status has finished.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Run is one persisted pipeline invocation.
type Run struct {
	ID           string
	InputPath    string
	BaseName     string
	Status       Status
	Stage        string
	SubtitlePath string
	OutputPath   string
	ErrorKind    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   *time.Time
}

// Duration reports how long the run took, or has taken so far.
func (r *Run) Duration(now time.Time) time.Duration {
	if r == nil || r.CreatedAt.IsZero() {
		return 0
	}
	end := now
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	if end.Before(r.CreatedAt) {
		return 0
	}
	return end.Sub(r.CreatedAt)
}
