package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"subburn/internal/deps"
	"subburn/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cfg)
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range dependencyLines(statuses, colorize) {
				fmt.Fprintln(out, line)
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range results {
				fmt.Fprintln(out, renderStatusLine(result.Name, checkKind(result.Passed, false), result.Detail, colorize))
			}

			if len(deps.Missing(statuses)) > 0 || len(preflight.Failed(results)) > 0 {
				return errors.New("dependency check failed")
			}
			return nil
		},
	}
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, status := range statuses {
		if status.Available {
			lines = append(lines, renderStatusLine(status.Name, statusOK, fmt.Sprintf("Ready (%s)", status.Path), colorize))
			continue
		}
		detail := status.Detail
		if detail == "" {
			detail = "not available"
		}
		if status.Description != "" {
			detail = fmt.Sprintf("%s; %s", detail, status.Description)
		}
		lines = append(lines, renderStatusLine(status.Name, checkKind(false, status.Optional), detail, colorize))
	}
	return lines
}
