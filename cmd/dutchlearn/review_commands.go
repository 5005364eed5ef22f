package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dutchlearn/internal/projects"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Track learning progress per sentence",
	}

	reviewCmd.AddCommand(newReviewLearnCommand(ctx))
	reviewCmd.AddCommand(newReviewDifficultCommand(ctx))
	reviewCmd.AddCommand(newReviewRecordCommand(ctx))
	reviewCmd.AddCommand(newReviewSpeakerCommand(ctx))

	return reviewCmd
}

func parseSentenceIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("sentence index must be a number, got %q", arg)
	}
	return index, nil
}

func newReviewLearnCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "learn <project-id> <sentence-index>",
		Short: "Mark a sentence as learned",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseSentenceIndex(args[1])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *projects.Store) error {
				sentence, err := resolveSentence(cmd.Context(), store, args[0], index)
				if err != nil {
					return err
				}
				if err := store.MarkLearned(cmd.Context(), sentence.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Learned: %s\n", truncate(sentence.Text, 60))
				return nil
			})
		},
	}
}

func newReviewDifficultCommand(ctx *commandContext) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "difficult <project-id> <sentence-index>",
		Short: "Flag a sentence as difficult",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseSentenceIndex(args[1])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *projects.Store) error {
				sentence, err := resolveSentence(cmd.Context(), store, args[0], index)
				if err != nil {
					return err
				}
				if err := store.SetDifficult(cmd.Context(), sentence.ID, !clear); err != nil {
					return err
				}
				if clear {
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared difficult flag: %s\n", truncate(sentence.Text, 60))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Difficult: %s\n", truncate(sentence.Text, 60))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the difficult flag instead of setting it")
	return cmd
}

func newReviewRecordCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "record <project-id> <sentence-index>",
		Short: "Record that a sentence was reviewed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseSentenceIndex(args[1])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *projects.Store) error {
				sentence, err := resolveSentence(cmd.Context(), store, args[0], index)
				if err != nil {
					return err
				}
				if err := store.RecordReview(cmd.Context(), sentence.ID, time.Now().UTC()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reviewed: %s\n", truncate(sentence.Text, 60))
				return nil
			})
		},
	}
}

func newReviewSpeakerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "speaker <project-id> <label> <name>",
		Short: "Set a speaker's name manually",
		Long: "Set a speaker's display name manually. Manual names are never " +
			"overwritten by automatic identification or sync merges.",
		Args: cobra.ExactArgs(3),
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
				for _, speaker := range speakers {
					if speaker.Label == args[1] {
						if err := store.RenameSpeaker(cmd.Context(), speaker.ID, args[2]); err != nil {
							return err
						}
						fmt.Fprintf(cmd.OutOrStdout(), "Speaker %s is now %s\n", speaker.Label, args[2])
						return nil
					}
				}
				return fmt.Errorf("no speaker with label %q in project %s", args[1], shortID(project.ID))
			})
		},
	}
}
