package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"subburn/internal/events"
	"subburn/internal/procexec"
	"subburn/internal/services/whisper"
)

// Tool steps recognized by FakeTools.
const (
	StepExtract    = "extract"
	StepTranscribe = "transcribe"
	StepBurn       = "burn"
)

// FakeTools is a procexec.Runner that imitates ffmpeg and whisper by
// creating the files they would produce.
type FakeTools struct {
	// FailOn makes the given step exit with the mapped code.
	FailOn map[string]int
	// NoSubtitle stops the whisper imitation from writing a .srt file.
	NoSubtitle bool
	// ExtraSubtitles are additional file names written to whisper's output
	// directory.
	ExtraSubtitles []string

	mu    sync.Mutex
	calls []procexec.Command
	steps []string
}

// Run implements procexec.Runner.
func (f *FakeTools) Run(ctx context.Context, cmd procexec.Command) (procexec.Result, error) {
	if err := ctx.Err(); err != nil {
		return procexec.Result{}, err
	}
	step := classify(cmd)

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.steps = append(f.steps, step)
	f.mu.Unlock()

	if code, ok := f.FailOn[step]; ok {
		return procexec.Result{ExitCode: code, Output: step + " failed"}, &procexec.ExitError{
			Command:  cmd.String(),
			ExitCode: code,
			Output:   step + " failed",
		}
	}

	switch step {
	case StepTranscribe:
		return procexec.Result{}, f.transcribe(cmd)
	default:
		return procexec.Result{}, touch(cmd.Args[len(cmd.Args)-1])
	}
}

// Steps returns the tool steps invoked so far, in order.
func (f *FakeTools) Steps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.steps)
}

// Calls returns the commands received so far.
func (f *FakeTools) Calls() []procexec.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *FakeTools) transcribe(cmd procexec.Command) error {
	audio := cmd.Args[0]
	outDir := "."
	if i := slices.Index(cmd.Args, "--output_dir"); i >= 0 && i+1 < len(cmd.Args) {
		outDir = cmd.Args[i+1]
	}
	stem := whisper.ArtifactStem(audio)
	exts := []string{".txt", ".vtt", ".tsv", ".json"}
	if !f.NoSubtitle {
		exts = append(exts, ".srt")
	}
	for _, ext := range exts {
		if err := touch(filepath.Join(outDir, stem+ext)); err != nil {
			return err
		}
	}
	for _, name := range f.ExtraSubtitles {
		if err := touch(filepath.Join(outDir, name)); err != nil {
			return err
		}
	}
	return nil
}

func classify(cmd procexec.Command) string {
	if filepath.Base(cmd.Binary) == whisper.DefaultBinary {
		return StepTranscribe
	}
	if slices.Contains(cmd.Args, "-vf") {
		return StepBurn
	}
	return StepExtract
}

func touch(path string) error {
	return os.WriteFile(path, nil, 0o644)
}

// EventRecorder is an events.Publisher that keeps every event in memory.
type EventRecorder struct {
	mu     sync.Mutex
	events []events.Event
	// Err is returned from every Publish call when set.
	Err error
}

// Publish implements events.Publisher.
func (r *EventRecorder) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Close implements events.Publisher.
func (r *EventRecorder) Close() error { return nil }

// Types returns the recorded event types in order.
func (r *EventRecorder) Types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}
