package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dutchlearn/internal/projects"
	"dutchlearn/internal/textutil"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage learning projects",
	}

	projectsCmd.AddCommand(newProjectsListCommand(ctx))
	projectsCmd.AddCommand(newProjectsShowCommand(ctx))
	projectsCmd.AddCommand(newProjectsRenameCommand(ctx))
	projectsCmd.AddCommand(newProjectsRemoveCommand(ctx))

	return projectsCmd
}

func newProjectsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *projects.Store) error {
				var statuses []projects.Status
				if trimmed := strings.TrimSpace(statusFlag); trimmed != "" {
					status, ok := projects.ParseStatus(trimmed)
					if !ok {
						return fmt.Errorf("unknown status %q", trimmed)
					}
					statuses = append(statuses, status)
				}

				all, err := store.ListProjects(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(all) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects.")
					return nil
				}

				rows := make([][]string, 0, len(all))
				for _, project := range all {
					rows = append(rows, []string{
						shortID(project.ID),
						truncate(project.Name, 32),
						string(project.Status),
						strconv.Itoa(project.Progress()) + "%",
						fmt.Sprintf("%d/%d", project.ProcessedSentences, project.TotalSentences),
						formatTime(project.CreatedAt),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Status", "Progress", "Sentences", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Filter by status (pending, ready, error, ...)")
	return cmd
}

func newProjectsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var sentenceLimit int

	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show project details, speakers, and sentences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *projects.Store) error {
				project, err := resolveProject(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				speakers, err := store.SpeakersByProject(cmd.Context(), project.ID)
				if err != nil {
					return err
				}
				sentences, err := store.SentencesByProject(cmd.Context(), project.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					encoder := json.NewEncoder(out)
					encoder.SetIndent("", "  ")
					return encoder.Encode(map[string]any{
						"project":   project,
						"speakers":  speakers,
						"sentences": sentences,
					})
				}

				fmt.Fprintf(out, "%s (%s)\n", project.Name, project.ID)
				fmt.Fprintf(out, "Status:    %s (%d%%)\n", project.Status, project.Progress())
				fmt.Fprintf(out, "Stage:     %s\n", project.StageDescription())
				fmt.Fprintf(out, "Source:    %s\n", project.OriginalFile)
				if project.AudioFile != "" {
					fmt.Fprintf(out, "Audio:     %s\n", project.AudioFile)
				}
				fmt.Fprintf(out, "Created:   %s\n", formatTime(project.CreatedAt))
				fmt.Fprintf(out, "Sentences: %d total, %d learned, %d difficult\n",
					len(sentences), countLearned(sentences), countDifficult(sentences))

				if len(speakers) > 0 {
					rows := make([][]string, 0, len(speakers))
					for _, speaker := range speakers {
						rows = append(rows, []string{
							speaker.Label,
							textutil.Ternary(speaker.DisplayName != "", speaker.DisplayName, "-"),
							fmt.Sprintf("%.1f", speaker.Confidence),
							textutil.Ternary(speaker.IsManual, "manual", ""),
						})
					}
					fmt.Fprintln(out)
					fmt.Fprintln(out, renderTable(
						[]string{"Speaker", "Name", "Confidence", ""},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
					))
				}

				if len(sentences) > 0 {
					limit := sentenceLimit
					if limit <= 0 || limit > len(sentences) {
						limit = len(sentences)
					}
					rows := make([][]string, 0, limit)
					for _, sentence := range sentences[:limit] {
						marks := ""
						if sentence.Learned {
							marks += "L"
						}
						if sentence.IsDifficult {
							marks += "D"
						}
						rows = append(rows, []string{
							strconv.Itoa(sentence.Index),
							fmt.Sprintf("%.1fs", sentence.StartTime),
							truncate(sentence.Text, 48),
							truncate(sentence.TranslationEN, 48),
							marks,
						})
					}
					fmt.Fprintln(out)
					fmt.Fprintln(out, renderTable(
						[]string{"#", "Start", "Text", "Translation", ""},
						rows,
						[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
					))
					if limit < len(sentences) {
						fmt.Fprintf(out, "Showing %d of %d sentences (use --limit 0 for all).\n", limit, len(sentences))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of tables")
	cmd.Flags().IntVar(&sentenceLimit, "limit", 20, "Maximum sentences to display (0 shows all)")
	return cmd
}

func newProjectsRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <project-id> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *projects.Store) error {
				project, err := resolveProject(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				name := strings.TrimSpace(args[1])
				if name == "" {
					return fmt.Errorf("name must not be empty")
				}
				if err := store.RenameProject(cmd.Context(), project.ID, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", shortID(project.ID), name)
				return nil
			})
		},
	}
}

func newProjectsRemoveCommand(ctx *commandContext) *cobra.Command {
	var keepAudio bool

	cmd := &cobra.Command{
		Use:   "remove <project-id>",
		Short: "Delete a project and its sentences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *projects.Store) error {
				project, err := resolveProject(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if err := store.DeleteProject(cmd.Context(), project.ID); err != nil {
					return err
				}
				if !keepAudio {
					audioPath := cfg.AudioPath(project.ID)
					if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: remove audio: %v\n", err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", project.Name, shortID(project.ID))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&keepAudio, "keep-audio", false, "Keep the extracted audio file on disk")
	return cmd
}

func countLearned(sentences []*projects.Sentence) int {
	count := 0
	for _, sentence := range sentences {
		if sentence.Learned {
			count++
		}
	}
	return count
}

func countDifficult(sentences []*projects.Sentence) int {
	count := 0
	for _, sentence := range sentences {
		if sentence.IsDifficult {
			count++
		}
	}
	return count
}
