package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dutchlearn/internal/config"
	"dutchlearn/internal/fileutil"
	"dutchlearn/internal/projects"
	"dutchlearn/internal/textutil"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var nameFlag string

	cmd := &cobra.Command{
		Use:   "add <media-file>",
		Short: "Register a recording as a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve media path: %w", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("media file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory, expected a media file", path)
			}

			name := strings.TrimSpace(nameFlag)
			if name == "" {
				name = deriveProjectName(path)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stored, err := copyIntoUploads(cfg, path)
			if err != nil {
				return fmt.Errorf("copy media into uploads: %w", err)
			}

			return ctx.withStore(func(store *projects.Store) error {
				project, err := store.NewProject(cmd.Context(), name, stored)
				if err != nil {
					return fmt.Errorf("create project: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added project %s (%s)\n", project.Name, shortID(project.ID))
				fmt.Fprintln(cmd.OutOrStdout(), "Run 'dutchlearn process' to start processing.")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Project name (derived from the filename when omitted)")
	return cmd
}

// copyIntoUploads places a verified copy of the media file in the upload
// directory so the pipeline never depends on the original location.
func copyIntoUploads(cfg *config.Config, src string) (string, error) {
	if err := os.MkdirAll(cfg.Paths.UploadDir, 0o755); err != nil {
		return "", err
	}
	base := textutil.SanitizeFileName(filepath.Base(src))
	if base == "" {
		base = "upload" + filepath.Ext(src)
	}
	target, err := fileutil.UniquePath(filepath.Join(cfg.Paths.UploadDir, base))
	if err != nil {
		return "", err
	}
	if err := fileutil.CopyFileVerified(src, target); err != nil {
		return "", err
	}
	return target, nil
}
