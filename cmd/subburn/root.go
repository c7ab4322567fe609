package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const usageLine = "Usage: subburn path/to/video.mp4"

func newRootCommand() *cobra.Command {
	var configFlag string
	var opts runOptions

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "subburn <video>",
		Short:         "Transcribe a video and burn the subtitles into a copy",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The root command loads config itself once the input is known to exist.
			if shouldSkipConfig(cmd) || !cmd.HasParent() {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(cmd.OutOrStdout(), usageLine)
				return nil
			}
			return runPipeline(cmd, ctx, args[0], opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	flags := rootCmd.Flags()
	flags.StringVar(&opts.language, "language", "", "Spoken language passed to whisper (name, ISO code, or auto)")
	flags.StringVar(&opts.model, "model", "", "Whisper model name")
	flags.BoolVar(&opts.keepIntermediates, "keep-intermediates", false, "Keep the extracted audio and transcript files")
	flags.BoolVar(&opts.verbose, "verbose", false, "Stream ffmpeg and whisper output")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
