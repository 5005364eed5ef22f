package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dutchlearn/internal/preflight"
	"dutchlearn/internal/projects"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service health and project counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			rows := make([][]string, 0, 8)
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				rows = append(rows, []string{dep.Name, statusMark(dep.Available, colorize), dep.Detail})
			}
			checks := []preflight.Result{
				preflight.CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
				preflight.CheckAssemblyAIFromConfig(cfg),
				preflight.CheckOpenAIFromConfig(cfg),
				preflight.CheckRemoteSyncFromConfig(cfg),
			}
			for _, check := range checks {
				rows = append(rows, []string{check.Name, statusMark(check.Passed, colorize), check.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			return ctx.withStore(func(store *projects.Store) error {
				counts := make([][]string, 0, len(projects.AllStatuses()))
				for _, status := range projects.AllStatuses() {
					list, err := store.ListProjects(cmd.Context(), status)
					if err != nil {
						return err
					}
					if len(list) == 0 {
						continue
					}
					counts = append(counts, []string{string(status), fmt.Sprintf("%d", len(list))})
				}
				if len(counts) == 0 {
					fmt.Fprintln(out, "No projects.")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Status", "Projects"},
					counts,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func statusMark(ok, colorize bool) string {
	if ok {
		if colorize {
			return ansiGreen + "ok" + ansiReset
		}
		return "ok"
	}
	if colorize {
		return ansiRed + "fail" + ansiReset
	}
	return "fail"
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
