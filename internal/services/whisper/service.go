package whisper

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"subburn/internal/procexec"
)

// DefaultBinary is the whisper executable resolved from PATH.
const DefaultBinary = "whisper"

// Options are the transcription settings passed on the command line.
type Options struct {
	// Language is passed verbatim to --language; empty lets whisper detect it.
	Language string
	Task     string
	Model    string
	// OutputDir is passed to --output_dir; empty keeps whisper's default of
	// the working directory.
	OutputDir string
}

// Args builds the whisper argument list for audio.
func Args(audio string, opts Options) []string {
	args := []string{procexec.PathArg(audio)}
	if lang := strings.TrimSpace(opts.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	task := strings.TrimSpace(opts.Task)
	if task == "" {
		task = "transcribe"
	}
	args = append(args, "--task", task)
	if model := strings.TrimSpace(opts.Model); model != "" {
		args = append(args, "--model", model)
	}
	if dir := strings.TrimSpace(opts.OutputDir); dir != "" {
		args = append(args, "--output_dir", procexec.PathArg(dir))
	}
	return args
}

// ArtifactStem returns the file name prefix whisper uses for the outputs of
// audio: its base name without extension.
func ArtifactStem(audio string) string {
	base := filepath.Base(audio)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Service runs whisper through a procexec.Runner.
type Service struct {
	binary string
	runner procexec.Runner
	opts   Options
	stdout io.Writer
	stderr io.Writer
}

// Option customizes a Service.
type Option func(*Service)

// WithOutput streams whisper's output to the given writers.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Service) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// NewService creates a whisper service. An empty binary uses DefaultBinary.
func NewService(binary string, runner procexec.Runner, opts Options, options ...Option) *Service {
	if binary == "" {
		binary = DefaultBinary
	}
	if runner == nil {
		runner = procexec.NewExecRunner()
	}
	s := &Service{binary: binary, runner: runner, opts: opts}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Transcribe runs whisper on audio.
func (s *Service) Transcribe(ctx context.Context, audio string) (procexec.Result, error) {
	if strings.TrimSpace(audio) == "" {
		return procexec.Result{}, errors.New("transcribe: audio path required")
	}
	return s.runner.Run(ctx, procexec.Command{
		Binary: s.binary,
		Args:   Args(audio, s.opts),
		Stdout: s.stdout,
		Stderr: s.stderr,
	})
}
