package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"dutchlearn/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lineCount int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent pipeline log output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, "dutchlearn.log")
			out := cmd.OutOrStdout()

			if follow {
				return logs.Follow(cmd.Context(), out, path, lineCount)
			}

			lines, _, err := logs.Tail(path, lineCount)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				fmt.Fprintln(out, "No log output yet.")
				return nil
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lineCount, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new log lines until interrupted")
	return cmd
}
