package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "missing", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] missing")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "Ready", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestRenderStatusLineWithoutMessage(t *testing.T) {
	got := renderStatusLine("Probe", statusInfo, "  ", false)
	if !strings.HasSuffix(got, "[INFO]") {
		t.Fatalf("expected bare status, got %q", got)
	}
}

func TestCheckKind(t *testing.T) {
	if checkKind(true, false) != statusOK || checkKind(false, true) != statusWarn || checkKind(false, false) != statusError {
		t.Fatal("unexpected checkKind mapping")
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never colorized")
	}
}
