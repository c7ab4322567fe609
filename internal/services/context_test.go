package services

import (
	"context"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id on bare context")
	}
	ctx = WithRunID(ctx, "run-1")
	ctx = WithStage(ctx, "transcribe")
	if id, ok := RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %q %v", id, ok)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "transcribe" {
		t.Fatalf("unexpected stage: %q %v", stage, ok)
	}
	if got := WithStage(ctx, ""); got != ctx {
		t.Fatal("expected empty stage to return the same context")
	}
}
