// Package syncer moves project snapshots between the local store and a
// remote snapshot store. Uploads push ready projects; downloads import new
// remote projects and merge projects that exist on both sides.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dutchlearn/internal/config"
	"dutchlearn/internal/logging"
	"dutchlearn/internal/projects"
	"dutchlearn/internal/services"
	"dutchlearn/internal/services/remotestore"
	"dutchlearn/internal/snapshot"
)

// ProjectError records a per-project sync failure. Sync is deliberately
// partial: one broken project never blocks the rest.
type ProjectError struct {
	ProjectID string
	Err       error
}

func (e ProjectError) Error() string {
	return fmt.Sprintf("project %s: %v", e.ProjectID, e.Err)
}

func (e ProjectError) Unwrap() error {
	return e.Err
}

// Result summarizes one sync run.
type Result struct {
	Uploaded   []string
	Downloaded []string
	Merged     []string
	New        []string
	Errors     []ProjectError
}

// Engine synchronizes the local project store with a remote snapshot store.
type Engine struct {
	store  *projects.Store
	remote remotestore.Store
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock overrides the time source used for merge timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wires a sync engine from its collaborators.
func NewEngine(store *projects.Store, remote remotestore.Store, cfg *config.Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	engine := &Engine{
		store:  store,
		remote: remote,
		cfg:    cfg,
		logger: logger.With(logging.String("component", "syncer")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Upload pushes ready projects to the remote store. When ids is empty every
// ready project is uploaded. Failures are collected per project.
func (e *Engine) Upload(ctx context.Context, ids []string) (Result, error) {
	var result Result

	ready, err := e.store.ListProjects(ctx, projects.StatusReady)
	if err != nil {
		return result, services.Wrap(services.ErrSync, "sync", "list_local", "list ready projects", err)
	}
	selected := filterProjects(ready, ids)

	for _, project := range selected {
		if err := e.uploadProject(ctx, project); err != nil {
			result.Errors = append(result.Errors, ProjectError{ProjectID: project.ID, Err: err})
			e.logger.Warn("project upload failed",
				logging.String("project_id", project.ID),
				logging.Error(err))
			continue
		}
		result.Uploaded = append(result.Uploaded, project.ID)
		e.logger.Info("project uploaded", logging.String("project_id", project.ID))
	}
	return result, nil
}

func (e *Engine) uploadProject(ctx context.Context, project *projects.Project) error {
	doc, err := snapshot.Export(ctx, e.store, project.ID)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	if err := e.remote.PutDocument(ctx, project.ID, *doc); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}

	if !e.cfg.Sync.UploadAudio {
		return nil
	}
	audioPath := e.cfg.AudioPath(project.ID)
	audio, err := os.Open(audioPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer audio.Close()
	if err := e.remote.PutBlob(ctx, project.ID, audio); err != nil {
		return fmt.Errorf("put audio: %w", err)
	}
	return nil
}

// Download pulls projects from the remote store. Projects unknown locally are
// imported verbatim along with their audio blob; projects present on both
// sides are merged field by field before import. When ids is empty every
// remote project is considered.
func (e *Engine) Download(ctx context.Context, ids []string) (Result, error) {
	var result Result

	remoteIDs, err := e.remote.List(ctx)
	if err != nil {
		return result, services.Wrap(services.ErrSync, "sync", "list_remote", "list remote projects", err)
	}
	remoteIDs = filterIDs(remoteIDs, ids)

	for _, projectID := range remoteIDs {
		isNew, err := e.downloadProject(ctx, projectID)
		if err != nil {
			result.Errors = append(result.Errors, ProjectError{ProjectID: projectID, Err: err})
			e.logger.Warn("project download failed",
				logging.String("project_id", projectID),
				logging.Error(err))
			continue
		}
		result.Downloaded = append(result.Downloaded, projectID)
		if isNew {
			result.New = append(result.New, projectID)
		} else {
			result.Merged = append(result.Merged, projectID)
		}
		e.logger.Info("project downloaded",
			logging.String("project_id", projectID),
			logging.Bool("new", isNew))
	}
	return result, nil
}

func (e *Engine) downloadProject(ctx context.Context, projectID string) (bool, error) {
	remoteDoc, err := e.remote.GetDocument(ctx, projectID)
	if err != nil {
		return false, fmt.Errorf("fetch snapshot: %w", err)
	}

	local, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return false, fmt.Errorf("load local project: %w", err)
	}

	if local == nil {
		if err := snapshot.Import(ctx, e.store, &remoteDoc); err != nil {
			return false, fmt.Errorf("import snapshot: %w", err)
		}
		if err := e.fetchAudio(ctx, projectID); err != nil {
			e.logger.Warn("audio download failed",
				logging.String("project_id", projectID),
				logging.Error(err))
		}
		return true, nil
	}

	localDoc, err := snapshot.Export(ctx, e.store, projectID)
	if err != nil {
		return false, fmt.Errorf("export local snapshot: %w", err)
	}
	merged := snapshot.Merge(*localDoc, remoteDoc, e.now())
	if err := snapshot.Import(ctx, e.store, &merged); err != nil {
		return false, fmt.Errorf("import merged snapshot: %w", err)
	}
	return false, nil
}

// fetchAudio copies the remote audio blob next to the other local audio
// artifacts. A missing blob on the remote is not an error.
func (e *Engine) fetchAudio(ctx context.Context, projectID string) error {
	blob, err := e.remote.GetBlob(ctx, projectID)
	if errors.Is(err, services.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	defer blob.Close()

	audioPath := e.cfg.AudioPath(projectID)
	if err := os.MkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(audioPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, blob); err != nil {
		out.Close()
		os.Remove(audioPath)
		return err
	}
	return out.Close()
}

func filterProjects(all []*projects.Project, ids []string) []*projects.Project {
	if len(ids) == 0 {
		return all
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var selected []*projects.Project
	for _, project := range all {
		if _, ok := wanted[project.ID]; ok {
			selected = append(selected, project)
		}
	}
	return selected
}

func filterIDs(all, ids []string) []string {
	if len(ids) == 0 {
		return all
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var selected []string
	for _, id := range all {
		if _, ok := wanted[id]; ok {
			selected = append(selected, id)
		}
	}
	return selected
}
