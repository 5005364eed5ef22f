package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dutchlearn/internal/logging"
	"dutchlearn/internal/projects"
	"dutchlearn/internal/services/remotestore"
	"dutchlearn/internal/syncer"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize projects with the remote snapshot store",
	}

	syncCmd.AddCommand(newSyncUpCommand(ctx))
	syncCmd.AddCommand(newSyncDownCommand(ctx))

	return syncCmd
}

func (c *commandContext) buildSyncEngine(store *projects.Store) (*syncer.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Sync.RemoteURL) == "" {
		return nil, errors.New("sync is not configured: set [sync] remote_url in the config file")
	}
	remote, err := remotestore.NewClient(remotestore.Config{
		BaseURL:        cfg.Sync.RemoteURL,
		Token:          cfg.Sync.Token,
		TimeoutSeconds: cfg.Sync.TimeoutSeconds,
	})
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return syncer.NewEngine(store, remote, cfg, logger), nil
}

func newSyncUpCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "up [project-id...]",
		Short: "Upload ready projects to the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *projects.Store) error {
				engine, err := ctx.buildSyncEngine(store)
				if err != nil {
					return err
				}
				result, err := engine.Upload(cmd.Context(), args)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Uploaded %d project(s)\n", len(result.Uploaded))
				reportSyncErrors(cmd, result)
				if len(result.Uploaded) == 0 && len(result.Errors) > 0 {
					return errors.New("all uploads failed")
				}
				return nil
			})
		},
	}
}

func newSyncDownCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "down [project-id...]",
		Short: "Download and merge projects from the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *projects.Store) error {
				engine, err := ctx.buildSyncEngine(store)
				if err != nil {
					return err
				}
				result, err := engine.Download(cmd.Context(), args)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Downloaded %d project(s): %d new, %d merged\n",
					len(result.Downloaded), len(result.New), len(result.Merged))
				reportSyncErrors(cmd, result)
				if len(result.Downloaded) == 0 && len(result.Errors) > 0 {
					return errors.New("all downloads failed")
				}
				return nil
			})
		},
	}
}

func reportSyncErrors(cmd *cobra.Command, result syncer.Result) {
	for _, failure := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", shortID(failure.ProjectID), failure.Err)
	}
}
