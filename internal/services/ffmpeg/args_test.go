package ffmpeg

import (
	"context"
	"reflect"
	"slices"
	"testing"

	"subburn/internal/procexec"
)

func TestExtractAudioArgs(t *testing.T) {
	got := ExtractAudioArgs("/videos/my clip.mp4", "/videos/my clip.wav", false)
	want := []string{
		"-y", "-hide_banner",
		"-i", "/videos/my clip.mp4",
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"/videos/my clip.wav",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", got, want)
	}
}

func TestBurnSubtitlesArgsDefaults(t *testing.T) {
	got := BurnSubtitlesArgs("clip.mp4", "clip.srt", "clip_with_subs.mp4", BurnOptions{Quiet: true})
	want := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", "clip.mp4",
		"-vf", "subtitles=clip.srt",
		"-c:v", "libx264",
		"-c:a", "copy",
		"clip_with_subs.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", got, want)
	}
}

func TestArgsKeepDashPathsPositional(t *testing.T) {
	extract := ExtractAudioArgs("-clip.mp4", "-clip.wav", true)
	if got := extract[len(extract)-1]; got != "./-clip.wav" {
		t.Fatalf("expected dest ./-clip.wav, got %q", got)
	}
	burn := BurnSubtitlesArgs("-clip.mp4", "-clip.srt", "-clip_with_subs.mp4", BurnOptions{})
	if got := burn[len(burn)-1]; got != "./-clip_with_subs.mp4" {
		t.Fatalf("expected dest ./-clip_with_subs.mp4, got %q", got)
	}
	for _, args := range [][]string{extract, burn} {
		i := slices.Index(args, "-i")
		if i < 0 || args[i+1] != "./-clip.mp4" {
			t.Fatalf("expected source ./-clip.mp4 after -i, got %q", args)
		}
	}
}

func TestSubtitlesFilterEscaping(t *testing.T) {
	cases := map[string]string{
		"clip.srt":            `subtitles=clip.srt`,
		"C:/media/clip.srt":   `subtitles=C\\:/media/clip.srt`,
		"it's.srt":            `subtitles=it\\\'s.srt`,
		"a,b[1];c.srt":        `subtitles=a\,b\[1\]\;c.srt`,
		`dir\name.srt`:        `subtitles=dir\\\\name.srt`,
		"/tmp/with space.srt": `subtitles=/tmp/with space.srt`,
	}
	for in, want := range cases {
		if got := SubtitlesFilter(in); got != want {
			t.Errorf("SubtitlesFilter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestServiceUsesRunner(t *testing.T) {
	var captured procexec.Command
	runner := procexec.RunnerFunc(func(_ context.Context, cmd procexec.Command) (procexec.Result, error) {
		captured = cmd
		return procexec.Result{}, nil
	})
	svc := NewService("/opt/ffmpeg", runner, WithQuiet(true))
	if _, err := svc.BurnSubtitles(context.Background(), "in.mkv", "in.srt", "in_with_subs.mp4", BurnOptions{VideoCodec: "libx265"}); err != nil {
		t.Fatalf("BurnSubtitles returned error: %v", err)
	}
	if captured.Binary != "/opt/ffmpeg" {
		t.Fatalf("unexpected binary %q", captured.Binary)
	}
	if !contains(captured.Args, "libx265") || !contains(captured.Args, "error") {
		t.Fatalf("expected codec override and quiet log level, got %q", captured.Args)
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
