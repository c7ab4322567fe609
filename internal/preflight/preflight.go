package preflight

import (
	"context"
	"os"

	"subburn/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if wd, err := os.Getwd(); err == nil {
		results = append(results, CheckDirectoryAccess("Working directory", wd))
	} else {
		results = append(results, Result{Name: "Working directory", Detail: err.Error()})
	}
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Transcription.OutputDir != "" {
		results = append(results, CheckDirectoryAccess("Transcription output", cfg.Transcription.OutputDir))
	}
	if cfg.Events.NATSURL != "" {
		results = append(results, CheckNATS(ctx, cfg.Events.NATSURL))
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		results = append(results, CheckEndpoint(ctx, "OTLP collector", cfg.Telemetry.OTLPEndpoint))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
