package runlock_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subburn/internal/runlock"
)

func TestAcquireIsExclusivePerKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locks")

	first, err := runlock.Acquire(dir, "/videos/clip")
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	t.Cleanup(func() { _ = first.Release() })

	if _, err := runlock.Acquire(dir, "/videos/clip"); !errors.Is(err, runlock.ErrHeld) {
		t.Fatalf("expected ErrHeld for second acquire, got %v", err)
	}

	other, err := runlock.Acquire(dir, "/videos/other")
	if err != nil {
		t.Fatalf("expected different key to lock independently: %v", err)
	}
	if err := other.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()
	lock, err := runlock.Acquire(dir, "clip")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if lock.Path() != runlock.PathFor(dir, "clip") {
		t.Fatalf("unexpected lock path %q", lock.Path())
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(lock.Path()); err != nil {
		t.Fatalf("expected lock file to remain after release: %v", err)
	}

	again, err := runlock.Acquire(dir, "clip")
	if err != nil {
		t.Fatalf("reacquire failed: %v", err)
	}
	_ = again.Release()
}

func TestNilLockRelease(t *testing.T) {
	var lock *runlock.Lock
	if err := lock.Release(); err != nil {
		t.Fatalf("expected nil lock release to be a no-op, got %v", err)
	}
}
