package pipeline

import (
	"context"
	"log/slog"
	"time"

	"subburn/internal/events"
	"subburn/internal/history"
	"subburn/internal/logging"
	"subburn/internal/services"
)

// HistoryStore is the subset of history.Store a run writes to.
type HistoryStore interface {
	Create(ctx context.Context, id, inputPath, baseName string) (*history.Run, error)
	Transition(ctx context.Context, id string, status history.Status, stage string) error
	RecordSubtitle(ctx context.Context, id, subtitlePath string) error
	Complete(ctx context.Context, id, outputPath string) error
	Fail(ctx context.Context, id, stage, kind, message string) error
}

// tracker fans run lifecycle changes out to history and events. Neither is
// allowed to fail a run; problems are logged as warnings. Writes ignore
// cancellation so an interrupted run is still recorded as failed.
type tracker struct {
	runID     string
	input     string
	store     HistoryStore
	publisher events.Publisher
	logger    *slog.Logger
	created   bool
	stage     stage
}

func (t *tracker) start(ctx context.Context, base string) {
	ctx = context.WithoutCancel(ctx)
	if t.store != nil {
		if _, err := t.store.Create(ctx, t.runID, t.input, base); err != nil {
			t.warn("history record failed", "history_write_failed", err)
		} else {
			t.created = true
		}
	}
	t.publish(ctx, events.Event{
		Type:   events.TypeProcessingStarted,
		Status: string(history.StatusPending),
	})
}

func (t *tracker) transition(ctx context.Context, s stage) {
	ctx = context.WithoutCancel(ctx)
	t.stage = s
	if t.created {
		if err := t.store.Transition(ctx, t.runID, s.status(), string(s)); err != nil {
			t.warn("history transition failed", "history_write_failed", err)
		}
	}
	t.publish(ctx, events.Event{
		Type:   events.TypeStageChanged,
		Status: string(s.status()),
		Stage:  string(s),
	})
}

func (t *tracker) subtitle(ctx context.Context, path string) {
	ctx = context.WithoutCancel(ctx)
	if !t.created {
		return
	}
	if err := t.store.RecordSubtitle(ctx, t.runID, path); err != nil {
		t.warn("history subtitle update failed", "history_write_failed", err)
	}
}

func (t *tracker) complete(ctx context.Context, output string) {
	ctx = context.WithoutCancel(ctx)
	if t.created {
		if err := t.store.Complete(ctx, t.runID, output); err != nil {
			t.warn("history completion failed", "history_write_failed", err)
		}
	}
	t.publish(ctx, events.Event{
		Type:       events.TypeProcessingCompleted,
		Status:     string(history.StatusCompleted),
		Stage:      string(t.stage),
		OutputPath: output,
	})
}

func (t *tracker) fail(ctx context.Context, runErr error) {
	ctx = context.WithoutCancel(ctx)
	kind := services.Kind(runErr)
	if t.created {
		if err := t.store.Fail(ctx, t.runID, string(t.stage), kind, runErr.Error()); err != nil {
			t.warn("history failure update failed", "history_write_failed", err)
		}
	}
	t.publish(ctx, events.Event{
		Type:      events.TypeProcessingFailed,
		Status:    string(history.StatusFailed),
		Stage:     string(t.stage),
		ErrorKind: kind,
		Error:     runErr.Error(),
	})
}

func (t *tracker) publish(ctx context.Context, event events.Event) {
	if t.publisher == nil {
		return
	}
	event.RunID = t.runID
	event.InputPath = t.input
	event.Timestamp = time.Now().UTC()
	if err := t.publisher.Publish(ctx, event); err != nil {
		t.warn("event publish failed", "event_publish_failed", err,
			logging.String("event", string(event.Type)))
	}
}

func (t *tracker) warn(msg, eventType string, err error, attrs ...logging.Attr) {
	attrs = append(attrs,
		logging.Error(err),
		logging.String(logging.FieldImpact, "run continues; status tracking is incomplete"),
	)
	logging.WarnWithContext(t.logger, msg, eventType, attrs...)
}
