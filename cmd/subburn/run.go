package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subburn/internal/config"
	"subburn/internal/events"
	"subburn/internal/history"
	"subburn/internal/language"
	"subburn/internal/logging"
	"subburn/internal/pipeline"
	"subburn/internal/services"
	"subburn/internal/telemetry"
)

type runOptions struct {
	language          string
	model             string
	keepIntermediates bool
	verbose           bool
}

func runPipeline(cmd *cobra.Command, ctx *commandContext, input string, opts runOptions) error {
	if err := pipeline.ValidateInput(input); err != nil {
		return err
	}
	base, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	cfg, err := applyRunOptions(cmd, *base, opts)
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	shutdown, exporter, err := telemetry.Setup(runCtx, cfg.Telemetry, cfg.TracePath(), logger)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", logging.String("exporter", exporter), logging.Error(err))
		}
	}()

	deps := pipeline.Dependencies{
		Config: cfg,
		Logger: logger,
		Tracer: telemetry.Tracer(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_unavailable",
				logging.String(logging.FieldImpact, "this run will not be recorded"),
				logging.String(logging.FieldErrorHint, "check state_dir permissions or disable [history]"),
				logging.Error(err),
			)
		} else {
			defer store.Close()
			deps.History = store
		}
	}

	publisher := connectEvents(cfg, logger)
	defer publisher.Close()
	deps.Events = publisher

	runner, err := pipeline.New(deps)
	if err != nil {
		return err
	}
	result, err := runner.Run(runCtx, input)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Done! Output file: %s\n", result.Output)
	return nil
}

func applyRunOptions(cmd *cobra.Command, cfg config.Config, opts runOptions) (*config.Config, error) {
	if cmd.Flags().Changed("language") {
		normalized, err := language.Normalize(opts.language)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "", "parse --language", opts.language, err)
		}
		cfg.Transcription.Language = normalized
	}
	if model := strings.TrimSpace(opts.model); model != "" {
		cfg.Transcription.Model = model
	}
	if opts.keepIntermediates {
		cfg.Cleanup.Enabled = false
	}
	if opts.verbose {
		cfg.Run.Quiet = false
	}
	return &cfg, nil
}

func connectEvents(cfg *config.Config, logger *slog.Logger) events.Publisher {
	url := strings.TrimSpace(cfg.Events.NATSURL)
	if url == "" {
		return events.Nop{}
	}
	publisher, err := events.ConnectNATS(url, cfg.Events.SubjectPrefix)
	if err != nil {
		logging.WarnWithContext(logger, "event publishing disabled", "events_unavailable",
			logging.String("nats_url", url),
			logging.String(logging.FieldImpact, "run status events will not be published"),
			logging.Error(err),
		)
		return events.Nop{}
	}
	return publisher
}
