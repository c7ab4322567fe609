package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"subburn/internal/config"
	"subburn/internal/events"
	"subburn/internal/logging"
	"subburn/internal/procexec"
	"subburn/internal/runlock"
	"subburn/internal/services"
	"subburn/internal/services/ffmpeg"
	"subburn/internal/services/whisper"
	"subburn/internal/telemetry"
)

// Dependencies are the collaborators a Runner drives. Only Config is
// required.
type Dependencies struct {
	Config *config.Config
	// Exec runs external tools; defaults to procexec.NewExecRunner().
	Exec   procexec.Runner
	Logger *slog.Logger
	// History records runs; nil disables history.
	History HistoryStore
	// Events receives lifecycle events; nil disables publishing.
	Events events.Publisher
	Tracer trace.Tracer
	// Stdout and Stderr receive tool output when quiet mode is off.
	Stdout io.Writer
	Stderr io.Writer
}

// Result describes a successful run.
type Result struct {
	RunID    string
	Input    string
	Subtitle string
	Output   string
	Removed  []string
	Duration time.Duration
}

// Runner executes the subtitle burning pipeline.
type Runner struct {
	cfg     *config.Config
	exec    procexec.Runner
	logger  *slog.Logger
	history HistoryStore
	events  events.Publisher
	tracer  trace.Tracer
	stdout  io.Writer
	stderr  io.Writer
	newID   func() string
}

// New creates a Runner.
func New(deps Dependencies) (*Runner, error) {
	if deps.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "new runner", "config is required", nil)
	}
	r := &Runner{
		cfg:     deps.Config,
		exec:    deps.Exec,
		logger:  logging.NewComponentLogger(deps.Logger, "pipeline"),
		history: deps.History,
		events:  deps.Events,
		tracer:  deps.Tracer,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
		newID:   uuid.NewString,
	}
	if r.exec == nil {
		r.exec = procexec.NewExecRunner()
	}
	if r.tracer == nil {
		r.tracer = telemetry.Tracer()
	}
	if r.stdout == nil {
		r.stdout = os.Stdout
	}
	if r.stderr == nil {
		r.stderr = os.Stderr
	}
	return r, nil
}

// Run processes input and returns the subtitled output on success.
func (r *Runner) Run(ctx context.Context, input string) (Result, error) {
	started := time.Now()
	runID := r.newID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	result := Result{RunID: runID, Input: input}

	if err := ValidateInput(input); err != nil {
		logger.Error("input validation failed",
			logging.String(logging.FieldEventType, "input_invalid"),
			logging.String("input", input),
			logging.Error(err),
		)
		return result, err
	}

	transcriptDir, err := r.transcriptDir()
	if err != nil {
		return result, err
	}
	artifacts := NewArtifacts(input, transcriptDir)
	if samePath(artifacts.WAV, input) {
		return result, services.Wrap(services.ErrValidation, string(stageValidating), "derive audio path",
			fmt.Sprintf("extracted audio would overwrite the input %s", input), nil)
	}

	lock, err := r.acquireLock(artifacts)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("run lock release failed", logging.Error(err))
		}
	}()

	ctx, span := r.tracer.Start(ctx, "subburn.run", trace.WithAttributes(
		attribute.String("subburn.run_id", runID),
		attribute.String("subburn.input", input),
	))
	defer span.End()

	track := &tracker{
		runID:     runID,
		input:     input,
		store:     r.history,
		publisher: r.events,
		logger:    logger,
	}
	track.start(ctx, artifacts.Base)

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("input", input),
		logging.String("output", artifacts.Output),
		logging.Bool("quiet", r.cfg.Run.Quiet),
	)

	subtitle, removed, err := r.execute(ctx, track, artifacts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, services.Kind(err))
		track.fail(ctx, err)
		logging.ErrorWithContext(logger, "run failed", "run_failure",
			logging.String(logging.FieldStage, string(track.stage)),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
		)
		return result, err
	}

	result.Subtitle = subtitle
	result.Output = artifacts.Output
	result.Removed = removed
	result.Duration = time.Since(started)

	track.complete(ctx, artifacts.Output)
	span.SetStatus(codes.Ok, "")
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output", artifacts.Output),
		logging.String("subtitle", subtitle),
		logging.Int("removed_files", len(removed)),
		logging.Duration("run_duration", result.Duration),
	)
	return result, nil
}

func (r *Runner) execute(ctx context.Context, track *tracker, artifacts Artifacts) (string, []string, error) {
	ff := ffmpeg.NewService(r.cfg.Tools.FFmpegBinary, r.toolRunner(), r.toolOptions()...)
	wh := whisper.NewService(r.cfg.Tools.WhisperBinary, r.toolRunner(), whisper.Options{
		Language:  r.cfg.Transcription.Language,
		Task:      r.cfg.Transcription.Task,
		Model:     r.cfg.Transcription.Model,
		OutputDir: r.cfg.Transcription.OutputDir,
	}, r.whisperOptions()...)

	err := r.stage(ctx, track, stageExtracting, func(ctx context.Context) error {
		_, err := ff.ExtractAudio(ctx, artifacts.Input, artifacts.WAV)
		return toolError(stageExtracting, "ffmpeg", err)
	})
	if err != nil {
		return "", nil, err
	}

	err = r.stage(ctx, track, stageTranscribing, func(ctx context.Context) error {
		_, err := wh.Transcribe(ctx, artifacts.WAV)
		return toolError(stageTranscribing, "whisper", err)
	})
	if err != nil {
		return "", nil, err
	}

	var subtitle string
	err = r.stage(ctx, track, stageLocating, func(ctx context.Context) error {
		found, err := artifacts.FindSubtitle()
		if errors.Is(err, ErrSubtitleNotFound) {
			return services.Wrap(services.ErrNotFound, string(stageLocating), "glob", artifacts.SubtitlePattern(), err)
		}
		if err != nil {
			return services.Wrap(services.ErrValidation, string(stageLocating), "glob", "invalid subtitle pattern", err)
		}
		subtitle = found
		track.subtitle(ctx, found)
		logging.WithContext(ctx, r.logger).Info("subtitle located", logging.String("subtitle", found))
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	err = r.stage(ctx, track, stageBurning, func(ctx context.Context) error {
		_, err := ff.BurnSubtitles(ctx, artifacts.Input, subtitle, artifacts.Output, ffmpeg.BurnOptions{
			VideoCodec: r.cfg.Burn.VideoCodec,
			AudioCodec: r.cfg.Burn.AudioCodec,
		})
		return toolError(stageBurning, "ffmpeg", err)
	})
	if err != nil {
		return "", nil, err
	}

	if !r.cfg.Cleanup.Enabled {
		logging.WithContext(ctx, r.logger).Info("cleanup skipped; keeping intermediate files",
			logging.String(logging.FieldEventType, "cleanup_skipped"),
			logging.String("audio", artifacts.WAV),
		)
		return subtitle, nil, nil
	}

	var removed []string
	err = r.stage(ctx, track, stageCleaning, func(ctx context.Context) error {
		var err error
		logger := logging.WithContext(ctx, r.logger)
		removed, err = Cleanup(artifacts, r.cfg.Cleanup.Extensions, logger)
		if err == nil && len(removed) > 0 {
			logger.Debug("intermediate files removed", logging.Strings("files", removed))
		}
		return err
	})
	if err != nil {
		return "", removed, err
	}
	return subtitle, removed, nil
}

// stage runs fn as one traced, tracked, and logged pipeline step.
func (r *Runner) stage(ctx context.Context, track *tracker, s stage, fn func(context.Context) error) error {
	ctx = services.WithStage(ctx, string(s))
	logger := logging.WithContext(ctx, r.logger)
	track.transition(ctx, s)

	ctx, span := r.tracer.Start(ctx, "subburn."+string(s))
	defer span.End()

	if timeout := r.stepTimeout(); timeout > 0 && s != stageLocating && s != stageCleaning {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stageStart := time.Now()
	logger.Info(s.label(),
		logging.String(logging.FieldEventType, "stage_start"),
	)
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, services.Kind(err))
		return err
	}
	logger.Info(s.label()+" done",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

func (r *Runner) stepTimeout() time.Duration {
	return time.Duration(r.cfg.Run.StepTimeoutSeconds) * time.Second
}

// toolRunner logs each command line before handing it to the exec runner.
func (r *Runner) toolRunner() procexec.Runner {
	return procexec.RunnerFunc(func(ctx context.Context, cmd procexec.Command) (procexec.Result, error) {
		logger := logging.WithContext(ctx, r.logger)
		level := slog.LevelInfo
		if r.cfg.Run.Quiet {
			level = slog.LevelDebug
		}
		logger.Log(ctx, level, "running command", logging.String("command", cmd.String()))
		res, err := r.exec.Run(ctx, cmd)
		logger.Debug("command finished",
			logging.String("command", cmd.Binary),
			logging.Int("exit_code", res.ExitCode),
			logging.Duration("command_duration", res.Duration),
		)
		return res, err
	})
}

func (r *Runner) toolOptions() []ffmpeg.Option {
	opts := []ffmpeg.Option{ffmpeg.WithQuiet(r.cfg.Run.Quiet)}
	if !r.cfg.Run.Quiet {
		opts = append(opts, ffmpeg.WithOutput(r.stdout, r.stderr))
	}
	return opts
}

func (r *Runner) whisperOptions() []whisper.Option {
	if r.cfg.Run.Quiet {
		return nil
	}
	return []whisper.Option{whisper.WithOutput(r.stdout, r.stderr)}
}

func (r *Runner) transcriptDir() (string, error) {
	if dir := r.cfg.Transcription.OutputDir; dir != "" {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, string(stageValidating), "getwd", "resolve working directory", err)
	}
	return wd, nil
}

func (r *Runner) acquireLock(artifacts Artifacts) (*runlock.Lock, error) {
	key, err := filepath.Abs(artifacts.Base)
	if err != nil {
		key = artifacts.Base
	}
	lock, err := runlock.Acquire(r.cfg.LockDir(), key)
	if errors.Is(err, runlock.ErrHeld) {
		return nil, services.Wrap(services.ErrValidation, string(stageValidating), "lock",
			fmt.Sprintf("%s is already being processed", artifacts.Input), err)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(stageValidating), "lock", "acquire run lock", err)
	}
	return lock, nil
}

// ValidateInput checks that input names an existing file. A missing file
// yields an error matching ErrInputNotFound. It touches nothing on disk.
func ValidateInput(input string) error {
	if input == "" {
		return services.Wrap(services.ErrValidation, string(stageValidating), "", "input path is empty", nil)
	}
	if _, err := os.Stat(input); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, string(stageValidating), "stat", input, ErrInputNotFound)
		}
		return services.Wrap(services.ErrValidation, string(stageValidating), "stat", input, err)
	}
	return nil
}

func toolError(s stage, tool string, err error) error {
	if err == nil {
		return nil
	}
	return services.Wrap(services.ErrExternalTool, string(s), tool, "", err)
}
