package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"subburn/internal/config"
	"subburn/internal/events"
	"subburn/internal/history"
	"subburn/internal/pipeline"
	"subburn/internal/procexec"
	"subburn/internal/runlock"
	"subburn/internal/services"
	"subburn/internal/testsupport"
)

type harness struct {
	cfg     *config.Config
	tools   *testsupport.FakeTools
	store   *history.Store
	events  *testsupport.EventRecorder
	workDir string
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	workDir := t.TempDir()
	t.Chdir(workDir)
	cfg := testsupport.NewConfig(t, opts...)
	return &harness{
		cfg:     cfg,
		tools:   &testsupport.FakeTools{},
		store:   testsupport.MustOpenHistory(t, cfg),
		events:  &testsupport.EventRecorder{},
		workDir: workDir,
	}
}

func (h *harness) runner(t *testing.T) *pipeline.Runner {
	t.Helper()
	r, err := pipeline.New(pipeline.Dependencies{
		Config:  h.cfg,
		Exec:    h.tools,
		History: h.store,
		Events:  h.events,
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return r
}

func (h *harness) onlyRun(t *testing.T) *history.Run {
	t.Helper()
	runs, err := h.store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected exactly one history record, got %d", len(runs))
	}
	return runs[0]
}

func TestRunClipSucceeds(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteFile(t, "clip.mp4", "video")

	result, err := h.runner(t).Run(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Output != "clip_with_subs.mp4" {
		t.Fatalf("unexpected output %q", result.Output)
	}
	if result.Subtitle != filepath.Join(h.workDir, "clip.srt") && result.Subtitle != "clip.srt" {
		t.Fatalf("unexpected subtitle %q", result.Subtitle)
	}
	if !testsupport.Exists(t, "clip_with_subs.mp4") {
		t.Fatal("expected output video to exist")
	}
	for _, gone := range []string{"clip.wav", "clip.txt", "clip.vtt", "clip.tsv", "clip.json"} {
		if testsupport.Exists(t, gone) {
			t.Fatalf("expected %s to be removed", gone)
		}
	}
	if !testsupport.Exists(t, "clip.mp4") {
		t.Fatal("input video must never be removed")
	}

	wantSteps := []string{testsupport.StepExtract, testsupport.StepTranscribe, testsupport.StepBurn}
	if got := h.tools.Steps(); !reflect.DeepEqual(got, wantSteps) {
		t.Fatalf("unexpected steps %v", got)
	}

	calls := h.tools.Calls()
	extract := calls[0]
	if extract.Binary != "ffmpeg" || extract.Args[len(extract.Args)-1] != "clip.wav" {
		t.Fatalf("unexpected extract command: %s", extract.String())
	}
	transcribe := calls[1]
	if transcribe.Binary != "whisper" || !slices.Equal(transcribe.Args[:5], []string{"clip.wav", "--language", "French", "--task", "transcribe"}) {
		t.Fatalf("unexpected transcribe command: %s", transcribe.String())
	}
	burn := calls[2]
	if !slices.Contains(burn.Args, "libx264") || burn.Args[len(burn.Args)-1] != "clip_with_subs.mp4" {
		t.Fatalf("unexpected burn command: %s", burn.String())
	}

	run := h.onlyRun(t)
	if run.ID != result.RunID || run.Status != history.StatusCompleted {
		t.Fatalf("unexpected history record: %+v", run)
	}
	if run.OutputPath != "clip_with_subs.mp4" || run.SubtitlePath == "" {
		t.Fatalf("expected artifacts recorded, got %+v", run)
	}

	wantEvents := []events.Type{
		events.TypeProcessingStarted,
		events.TypeStageChanged,
		events.TypeStageChanged,
		events.TypeStageChanged,
		events.TypeStageChanged,
		events.TypeStageChanged,
		events.TypeProcessingCompleted,
	}
	if got := h.events.Types(); !reflect.DeepEqual(got, wantEvents) {
		t.Fatalf("unexpected events %v", got)
	}
	for _, e := range h.events.Events() {
		if e.RunID != result.RunID {
			t.Fatalf("event %s carries run id %q, want %q", e.Type, e.RunID, result.RunID)
		}
	}
}

func TestRunMissingInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.runner(t).Run(context.Background(), "missing.mp4")
	if !errors.Is(err, pipeline.ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
	if services.Kind(err) != services.KindNotFound {
		t.Fatalf("expected not_found kind, got %q", services.Kind(err))
	}
	if !strings.Contains(err.Error(), "validating: stat: missing.mp4") {
		t.Fatalf("expected stage and operation in error, got %q", err)
	}
	if steps := h.tools.Steps(); len(steps) != 0 {
		t.Fatalf("expected no tool invocations, got %v", steps)
	}
	entries, err := os.ReadDir(h.workDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected working directory untouched, found %d entries", len(entries))
	}
	if testsupport.Exists(t, h.cfg.LockDir()) {
		t.Fatal("expected no lock directory for a missing input")
	}
	runs, err := h.store.List(context.Background(), 0)
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected no history for a missing input, got %d runs err=%v", len(runs), err)
	}
}

func TestRunNoSubtitleStopsBeforeBurn(t *testing.T) {
	h := newHarness(t)
	h.tools.NoSubtitle = true
	testsupport.WriteFile(t, "clip.mp4", "video")

	_, err := h.runner(t).Run(context.Background(), "clip.mp4")
	if !errors.Is(err, pipeline.ErrSubtitleNotFound) {
		t.Fatalf("expected ErrSubtitleNotFound, got %v", err)
	}
	if got := h.tools.Steps(); !reflect.DeepEqual(got, []string{testsupport.StepExtract, testsupport.StepTranscribe}) {
		t.Fatalf("expected no burn step, got %v", got)
	}
	if testsupport.Exists(t, "clip_with_subs.mp4") {
		t.Fatal("expected no output video")
	}
	if !testsupport.Exists(t, "clip.wav") {
		t.Fatal("expected extracted audio to remain when cleanup is not reached")
	}

	run := h.onlyRun(t)
	if run.Status != history.StatusFailed || run.Stage != "locating" || run.ErrorKind != services.KindNotFound {
		t.Fatalf("unexpected history record: %+v", run)
	}
	types := h.events.Types()
	if types[len(types)-1] != events.TypeProcessingFailed {
		t.Fatalf("expected final failed event, got %v", types)
	}
}

func TestRunToolFailureHaltsPipeline(t *testing.T) {
	cases := []struct {
		failOn    string
		wantSteps []string
		wantStage string
	}{
		{testsupport.StepExtract, []string{testsupport.StepExtract}, "extracting"},
		{testsupport.StepTranscribe, []string{testsupport.StepExtract, testsupport.StepTranscribe}, "transcribing"},
		{testsupport.StepBurn, []string{testsupport.StepExtract, testsupport.StepTranscribe, testsupport.StepBurn}, "burning"},
	}
	for _, tc := range cases {
		t.Run(tc.failOn, func(t *testing.T) {
			h := newHarness(t)
			h.tools.FailOn = map[string]int{tc.failOn: 1}
			testsupport.WriteFile(t, "clip.mp4", "video")

			_, err := h.runner(t).Run(context.Background(), "clip.mp4")
			if !errors.Is(err, services.ErrExternalTool) {
				t.Fatalf("expected external tool error, got %v", err)
			}
			var exitErr *procexec.ExitError
			if !errors.As(err, &exitErr) || exitErr.ExitCode != 1 {
				t.Fatalf("expected ExitError with code 1, got %v", err)
			}
			if !strings.Contains(err.Error(), "clip") {
				t.Fatalf("expected command line in error, got %q", err.Error())
			}
			if got := h.tools.Steps(); !reflect.DeepEqual(got, tc.wantSteps) {
				t.Fatalf("unexpected steps %v", got)
			}
			if testsupport.Exists(t, "clip_with_subs.mp4") {
				t.Fatal("expected no output video")
			}
			run := h.onlyRun(t)
			if run.Status != history.StatusFailed || run.Stage != tc.wantStage || run.ErrorKind != services.KindExternalTool {
				t.Fatalf("unexpected history record: %+v", run)
			}
		})
	}
}

func TestRunPicksFirstSubtitleLexically(t *testing.T) {
	h := newHarness(t)
	h.tools.ExtraSubtitles = []string{"clip.en.srt", "clip-a.srt"}
	testsupport.WriteFile(t, "clip.mp4", "video")

	result, err := h.runner(t).Run(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if filepath.Base(result.Subtitle) != "clip-a.srt" {
		t.Fatalf("expected clip-a.srt, got %q", result.Subtitle)
	}
	burn := h.tools.Calls()[2]
	if !slices.Contains(burn.Args, "subtitles="+result.Subtitle) {
		t.Fatalf("expected burn to use %s, got %q", result.Subtitle, burn.Args)
	}
}

func TestRunDashPrefixedInput(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteFile(t, "-clip.mp4", "video")

	result, err := h.runner(t).Run(context.Background(), "-clip.mp4")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Output != "-clip_with_subs.mp4" || !testsupport.Exists(t, "-clip_with_subs.mp4") {
		t.Fatalf("expected -clip_with_subs.mp4, got %q", result.Output)
	}
	calls := h.tools.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 tool calls, got %d", len(calls))
	}
	if got := calls[0].Args[len(calls[0].Args)-1]; got != "./-clip.wav" {
		t.Fatalf("extract dest = %q", got)
	}
	if got := calls[1].Args[0]; got != "./-clip.wav" {
		t.Fatalf("whisper audio = %q", got)
	}
	if got := calls[2].Args[len(calls[2].Args)-1]; got != "./-clip_with_subs.mp4" {
		t.Fatalf("burn dest = %q", got)
	}
	for _, call := range calls {
		for _, arg := range call.Args {
			if strings.HasPrefix(arg, "-clip") {
				t.Fatalf("path passed as option-like argument %q in %q", arg, call.Args)
			}
		}
	}
	if testsupport.Exists(t, "-clip.wav") {
		t.Fatal("expected extracted audio cleaned up")
	}
}

func TestRunInputOutsideWorkingDirectory(t *testing.T) {
	h := newHarness(t)
	videoDir := t.TempDir()
	input := filepath.Join(videoDir, "clip.mp4")
	testsupport.WriteFile(t, input, "video")

	result, err := h.runner(t).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Output != filepath.Join(videoDir, "clip_with_subs.mp4") {
		t.Fatalf("unexpected output %q", result.Output)
	}
	if result.Subtitle != filepath.Join(h.workDir, "clip.srt") {
		t.Fatalf("expected subtitle from working directory, got %q", result.Subtitle)
	}
	for _, gone := range []string{
		filepath.Join(videoDir, "clip.wav"),
		filepath.Join(h.workDir, "clip.txt"),
		filepath.Join(h.workDir, "clip.json"),
	} {
		if testsupport.Exists(t, gone) {
			t.Fatalf("expected %s removed", gone)
		}
	}
}

func TestRunTranscriptOutputDir(t *testing.T) {
	transcripts := t.TempDir()
	h := newHarness(t, testsupport.WithTranscriptDir(transcripts))
	testsupport.WriteFile(t, "clip.mp4", "video")

	result, err := h.runner(t).Run(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	transcribe := h.tools.Calls()[1]
	if !slices.Contains(transcribe.Args, "--output_dir") {
		t.Fatalf("expected --output_dir flag, got %q", transcribe.Args)
	}
	if result.Subtitle != filepath.Join(transcripts, "clip.srt") {
		t.Fatalf("unexpected subtitle %q", result.Subtitle)
	}
	if testsupport.Exists(t, filepath.Join(transcripts, "clip.vtt")) {
		t.Fatal("expected transcript artifacts removed from output dir")
	}
}

func TestRunKeepIntermediates(t *testing.T) {
	h := newHarness(t)
	h.cfg.Cleanup.Enabled = false
	testsupport.WriteFile(t, "clip.mp4", "video")

	result, err := h.runner(t).Run(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Removed) != 0 {
		t.Fatalf("expected nothing removed, got %q", result.Removed)
	}
	for _, kept := range []string{"clip.wav", "clip.txt", "clip_with_subs.mp4"} {
		if !testsupport.Exists(t, kept) {
			t.Fatalf("expected %s kept", kept)
		}
	}
}

func TestRunRejectsInputThatIsTheAudioPath(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteFile(t, "clip.wav", "audio")

	_, err := h.runner(t).Run(context.Background(), "clip.wav")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if steps := h.tools.Steps(); len(steps) != 0 {
		t.Fatalf("expected no tool invocations, got %v", steps)
	}
}

func TestRunRefusesConcurrentRunOnSameInput(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteFile(t, "clip.mp4", "video")

	held, err := runlock.Acquire(h.cfg.LockDir(), filepath.Join(h.workDir, "clip"))
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer held.Release()

	_, err = h.runner(t).Run(context.Background(), "clip.mp4")
	if !errors.Is(err, runlock.ErrHeld) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected held-lock validation error, got %v", err)
	}
	if steps := h.tools.Steps(); len(steps) != 0 {
		t.Fatalf("expected no tool invocations, got %v", steps)
	}
}

func TestRunEventFailuresDoNotFailRun(t *testing.T) {
	h := newHarness(t)
	h.events.Err = errors.New("broker down")
	testsupport.WriteFile(t, "clip.mp4", "video")

	if _, err := h.runner(t).Run(context.Background(), "clip.mp4"); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestRunWithoutHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	t.Chdir(t.TempDir())
	testsupport.WriteFile(t, "clip.mp4", "video")

	r, err := pipeline.New(pipeline.Dependencies{Config: cfg, Exec: &testsupport.FakeTools{}})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	if _, err := r.Run(context.Background(), "clip.mp4"); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestRunCanceledContext(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteFile(t, "clip.mp4", "video")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.runner(t).Run(ctx, "clip.mp4")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	run := h.onlyRun(t)
	if run.Status != history.StatusFailed || run.ErrorKind != services.KindCanceled {
		t.Fatalf("expected canceled failure recorded, got %+v", run)
	}
}

func TestRunVerboseStreamsToolOutput(t *testing.T) {
	h := newHarness(t)
	h.cfg.Run.Quiet = false
	testsupport.WriteFile(t, "clip.mp4", "video")

	var sink strings.Builder
	r, err := pipeline.New(pipeline.Dependencies{
		Config: h.cfg,
		Exec:   h.tools,
		Stdout: &sink,
		Stderr: &sink,
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	if _, err := r.Run(context.Background(), "clip.mp4"); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for _, call := range h.tools.Calls() {
		if call.Stdout == nil || call.Stderr == nil {
			t.Fatalf("expected output writers on %s", call.Binary)
		}
		if slices.Contains(call.Args, "-loglevel") {
			t.Fatalf("expected default ffmpeg log level in verbose mode: %q", call.Args)
		}
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := pipeline.New(pipeline.Dependencies{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
