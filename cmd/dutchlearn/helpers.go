package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dutchlearn/internal/projects"
)

// deriveProjectName turns an upload filename into a readable project name:
// separators become spaces and the result is title-cased.
func deriveProjectName(sourcePath string) string {
	if sourcePath == "" {
		return "Untitled Project"
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	name := strings.TrimSpace(cleaned.String())
	if name == "" {
		return "Untitled Project"
	}
	return cases.Title(language.Dutch).String(name)
}

// resolveProject looks up a project by full id or unique id prefix.
func resolveProject(ctx context.Context, store *projects.Store, arg string) (*projects.Project, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, fmt.Errorf("project id is required")
	}

	project, err := store.GetProject(ctx, arg)
	if err != nil {
		return nil, err
	}
	if project != nil {
		return project, nil
	}

	all, err := store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	var matches []*projects.Project
	for _, candidate := range all {
		if strings.HasPrefix(candidate.ID, arg) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no project matches %q", arg)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%q is ambiguous (%d projects match)", arg, len(matches))
	}
}

// resolveSentence looks up a sentence by project and 0-based index.
func resolveSentence(ctx context.Context, store *projects.Store, projectArg string, index int) (*projects.Sentence, error) {
	project, err := resolveProject(ctx, store, projectArg)
	if err != nil {
		return nil, err
	}
	sentences, err := store.SentencesByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(sentences) {
		return nil, fmt.Errorf("sentence index %d out of range (project has %d sentences)", index, len(sentences))
	}
	return sentences[index], nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04")
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if limit <= 3 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
