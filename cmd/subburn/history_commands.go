package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"subburn/internal/history"
)

const defaultHistoryLimit = 20

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New("--limit must be zero or positive")
			}
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintf(out, "No runs recorded in %s\n", store.Path())
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Status", "Stage", "Input", "Started", "Duration"},
					historyRows(runs, time.Now()),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Maximum number of runs to list (0 for all)")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run by ID or unique ID prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				writeRunDetails(cmd.OutOrStdout(), run, time.Now())
				return nil
			})
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove completed and failed runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d runs\n", removed)
				return nil
			})
		},
	}
}

func historyRows(runs []*history.Run, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			string(run.Status),
			run.Stage,
			run.InputPath,
			run.CreatedAt.Local().Format(time.DateTime),
			formatDuration(run.Duration(now)),
		})
	}
	return rows
}

func writeRunDetails(out io.Writer, run *history.Run, now time.Time) {
	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(out, "%-10s %s\n", label+":", value)
	}
	field("ID", run.ID)
	field("Status", string(run.Status))
	field("Stage", run.Stage)
	field("Input", run.InputPath)
	field("Subtitle", run.SubtitlePath)
	field("Output", run.OutputPath)
	field("Started", run.CreatedAt.Local().Format(time.RFC3339))
	if run.FinishedAt != nil {
		field("Finished", run.FinishedAt.Local().Format(time.RFC3339))
	}
	field("Duration", formatDuration(run.Duration(now)))
	if run.Status == history.StatusFailed {
		field("Error", fmt.Sprintf("%s: %s", run.ErrorKind, run.ErrorMessage))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
