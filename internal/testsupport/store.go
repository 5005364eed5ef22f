package testsupport

import (
	"context"
	"testing"

	"dutchlearn/internal/config"
	"dutchlearn/internal/projects"
)

// MustOpenStore opens a projects.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *projects.Store {
	t.Helper()

	store, err := projects.Open(cfg)
	if err != nil {
		t.Fatalf("projects.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewProject creates a project for tests using the provided store.
func NewProject(t testing.TB, store *projects.Store, name, originalFile string) *projects.Project {
	t.Helper()

	project, err := store.NewProject(context.Background(), name, originalFile)
	if err != nil {
		t.Fatalf("store.NewProject: %v", err)
	}
	return project
}
