package main

import (
	"strings"
	"testing"

	"subburn/internal/deps"
)

func TestDepsCommandReportsReadyTools(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if err != nil {
		t.Fatalf("deps: %v\n%s", err, out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "Whisper:")
	requireContains(t, out, "State directory:")
	if strings.Contains(out, "[ERROR]") {
		t.Fatalf("unexpected error line:\n%s", out)
	}
}

func TestDepsCommandFailsOnMissingTool(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Tools.WhisperBinary = "whisper-not-installed"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if err == nil {
		t.Fatal("expected deps to fail with a missing binary")
	}
	requireContains(t, out, `[ERROR] binary "whisper-not-installed" not found`)
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "FFmpeg", Available: true, Path: "/usr/bin/ffmpeg"},
		{Name: "Whisper", Detail: "binary \"whisper\" not found", Description: "Required for speech transcription"},
		{Name: "Extra", Optional: true},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] Ready (/usr/bin/ffmpeg)") {
		t.Fatalf("unexpected ready line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] binary \"whisper\" not found; Required for speech transcription") {
		t.Fatalf("unexpected missing line %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN] not available") {
		t.Fatalf("unexpected optional line %q", lines[2])
	}
}
