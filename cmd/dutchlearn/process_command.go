package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"dutchlearn/internal/config"
	"dutchlearn/internal/logging"
	"dutchlearn/internal/pipeline"
	"dutchlearn/internal/preflight"
	"dutchlearn/internal/projects"
	"dutchlearn/internal/services/assemblyai"
	"dutchlearn/internal/services/explainer"
	"dutchlearn/internal/services/ffmpeg"
	"dutchlearn/internal/services/openai"
	"dutchlearn/internal/services/speakerid"
)

// transcriberAdapter pins the configured language onto the AssemblyAI client
// so the pipeline only deals in audio paths.
type transcriberAdapter struct {
	client   *assemblyai.Client
	language string
}

func (a transcriberAdapter) Transcribe(ctx context.Context, audioPath string) (assemblyai.Result, error) {
	result, err := a.client.Transcribe(ctx, audioPath, a.language)
	if err != nil {
		return assemblyai.Result{}, err
	}
	return *result, nil
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "process [project-id...]",
		Short: "Run pending projects through the processing pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Processing holds API budgets and writes large audio files, so
			// only one instance may run at a time.
			lock := flock.New(filepath.Join(cfg.Paths.LogDir, "dutchlearn.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire process lock: %w", err)
			}
			if !locked {
				return errors.New("another dutchlearn process is already running")
			}
			defer lock.Unlock()

			if !skipChecks {
				results := preflight.RunAll(cmd.Context(), cfg)
				for _, result := range results {
					if !result.Passed {
						fmt.Fprintf(cmd.ErrOrStderr(), "preflight: %s: %s\n", result.Name, result.Detail)
					}
				}
				if !preflight.AllPassed(results) {
					return errors.New("preflight checks failed")
				}
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			return ctx.withStore(func(store *projects.Store) error {
				runner := buildRunner(cfg, store, logger)

				targets, err := selectTargets(cmd.Context(), store, args)
				if err != nil {
					return err
				}
				if len(targets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No pending projects.")
					return nil
				}

				var failures int
				for _, project := range targets {
					fmt.Fprintf(cmd.OutOrStdout(), "Processing %s (%s)...\n", project.Name, shortID(project.ID))
					if err := runner.Process(cmd.Context(), project.ID); err != nil {
						if errors.Is(err, context.Canceled) {
							return err
						}
						failures++
						fmt.Fprintf(cmd.ErrOrStderr(), "  failed: %v\n", err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  done.\n")
				}
				if failures > 0 {
					return fmt.Errorf("%d of %d projects failed", failures, len(targets))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip preflight checks")
	return cmd
}

func buildRunner(cfg *config.Config, store *projects.Store, logger *slog.Logger) *pipeline.Runner {
	extractor := ffmpeg.NewExtractor(cfg.FFmpegBinary(),
		ffmpeg.WithTimeout(time.Duration(cfg.Pipeline.ExtractTimeout)*time.Second))

	transcriber := transcriberAdapter{
		client: assemblyai.NewClient(assemblyai.Config{
			APIKey:           cfg.AssemblyAI.APIKey,
			BaseURL:          cfg.AssemblyAI.BaseURL,
			SpeakersExpected: cfg.AssemblyAI.SpeakersExpected,
			PollInterval:     cfg.AssemblyAI.PollInterval,
			TimeoutSeconds:   cfg.AssemblyAI.TimeoutSeconds,
		}),
		language: cfg.Pipeline.Language,
	}

	chat := openai.NewClient(openai.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.OpenAI.Model,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
	})

	return pipeline.NewRunner(store, cfg, extractor, transcriber, speakerid.New(chat), explainer.New(chat), logger)
}

func selectTargets(ctx context.Context, store *projects.Store, args []string) ([]*projects.Project, error) {
	if len(args) == 0 {
		return store.ListProjects(ctx, projects.StatusPending)
	}
	targets := make([]*projects.Project, 0, len(args))
	for _, arg := range args {
		project, err := resolveProject(ctx, store, arg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, project)
	}
	return targets, nil
}
