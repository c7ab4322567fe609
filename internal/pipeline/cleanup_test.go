package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subburn/internal/config"
	"subburn/internal/services"
)

func TestCleanupRemovesPresentFilesOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"clip.mp4", "clip.wav", "clip.txt", "clip.srt", "clip_with_subs.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	a := NewArtifacts(filepath.Join(dir, "clip.mp4"), dir)

	removed, err := Cleanup(a, config.DefaultCleanupExtensions(), nil)
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("expected two files removed, got %q", removed)
	}
	for _, gone := range []string{"clip.wav", "clip.txt"} {
		if _, err := os.Stat(filepath.Join(dir, gone)); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected %s removed, stat err=%v", gone, err)
		}
	}
	for _, kept := range []string{"clip.mp4", "clip.srt", "clip_with_subs.mp4"} {
		if _, err := os.Stat(filepath.Join(dir, kept)); err != nil {
			t.Fatalf("expected %s kept: %v", kept, err)
		}
	}
}

func TestCleanupPropagatesRemovalErrors(t *testing.T) {
	dir := t.TempDir()
	blocked := filepath.Join(dir, "clip.json")
	if err := os.MkdirAll(filepath.Join(blocked, "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	a := NewArtifacts(filepath.Join(dir, "clip.mp4"), dir)

	_, err := Cleanup(a, []string{".json"}, nil)
	if err == nil {
		t.Fatal("expected removal error for non-empty directory")
	}
	if services.Kind(err) != services.KindTransient {
		t.Fatalf("expected transient kind, got %q (%v)", services.Kind(err), err)
	}
}
