package ffmpeg

import (
	"context"
	"io"

	"subburn/internal/procexec"
)

// DefaultBinary is the ffmpeg executable resolved from PATH.
const DefaultBinary = "ffmpeg"

// Service runs ffmpeg through a procexec.Runner.
type Service struct {
	binary string
	runner procexec.Runner
	quiet  bool
	stdout io.Writer
	stderr io.Writer
}

// Option customizes a Service.
type Option func(*Service)

// WithQuiet lowers ffmpeg's log level to errors only.
func WithQuiet(quiet bool) Option {
	return func(s *Service) { s.quiet = quiet }
}

// WithOutput streams ffmpeg's output to the given writers.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Service) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// NewService creates an ffmpeg service. An empty binary uses DefaultBinary.
func NewService(binary string, runner procexec.Runner, opts ...Option) *Service {
	if binary == "" {
		binary = DefaultBinary
	}
	if runner == nil {
		runner = procexec.NewExecRunner()
	}
	s := &Service{binary: binary, runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractAudio writes source's audio track to dest as a whisper-ready WAV.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) (procexec.Result, error) {
	return s.run(ctx, ExtractAudioArgs(source, dest, s.quiet))
}

// BurnSubtitles re-encodes source into dest with subtitle burned in.
func (s *Service) BurnSubtitles(ctx context.Context, source, subtitle, dest string, opts BurnOptions) (procexec.Result, error) {
	opts.Quiet = s.quiet
	return s.run(ctx, BurnSubtitlesArgs(source, subtitle, dest, opts))
}

func (s *Service) run(ctx context.Context, args []string) (procexec.Result, error) {
	return s.runner.Run(ctx, procexec.Command{
		Binary: s.binary,
		Args:   args,
		Stdout: s.stdout,
		Stderr: s.stderr,
	})
}
