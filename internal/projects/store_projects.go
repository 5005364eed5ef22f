package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewProject inserts a pending project for an uploaded recording.
func (s *Store) NewProject(ctx context.Context, name, originalFile string) (*Project, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO projects (id, name, original_file, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		name,
		originalFile,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	return s.GetProject(ctx, id)
}

// GetProject fetches a project by identifier. Returns nil when absent.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// ListProjects returns projects filtered by status set (or all projects when
// no status is provided), ordered by creation time.
func (s *Store) ListProjects(ctx context.Context, statuses ...Status) ([]*Project, error) {
	baseQuery := `SELECT ` + projectColumns + ` FROM projects`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var result []*Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, project)
	}
	return result, rows.Err()
}

// SetStatus transitions a project to a new lifecycle status.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	if _, ok := statusSet[status]; !ok {
		return fmt.Errorf("unknown status %q", status)
	}
	return s.updateProject(ctx, id,
		`UPDATE projects SET status = ?, error_message = NULL, updated_at = ? WHERE id = ?`,
		status, nowString(), id)
}

// MarkError transitions a project to the terminal error status with a message.
func (s *Store) MarkError(ctx context.Context, id, message string) error {
	return s.updateProject(ctx, id,
		`UPDATE projects SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		StatusError, nullableString(message), nowString(), id)
}

// SetAudioFile records the extracted audio artifact path.
func (s *Store) SetAudioFile(ctx context.Context, id, audioFile string) error {
	return s.updateProject(ctx, id,
		`UPDATE projects SET audio_file = ?, updated_at = ? WHERE id = ?`,
		nullableString(audioFile), nowString(), id)
}

// SetSentenceCounts records the sentence totals after transcription. The
// processed count resets alongside so explanation progress starts from zero.
func (s *Store) SetSentenceCounts(ctx context.Context, id string, total, processed int) error {
	if processed > total {
		return fmt.Errorf("processed count %d exceeds total %d", processed, total)
	}
	return s.updateProject(ctx, id,
		`UPDATE projects SET total_sentences = ?, processed_sentences = ?, updated_at = ? WHERE id = ?`,
		total, processed, nowString(), id)
}

// SetProcessedSentences advances explanation progress mid-stage.
func (s *Store) SetProcessedSentences(ctx context.Context, id string, processed int) error {
	return s.updateProject(ctx, id,
		`UPDATE projects SET processed_sentences = MIN(?, total_sentences), updated_at = ? WHERE id = ?`,
		processed, nowString(), id)
}

// RenameProject updates the project display name.
func (s *Store) RenameProject(ctx context.Context, id, name string) error {
	if name == "" {
		return errors.New("project name required")
	}
	return s.updateProject(ctx, id,
		`UPDATE projects SET name = ?, updated_at = ? WHERE id = ?`,
		name, nowString(), id)
}

// DeleteProject removes a project and, via cascade, its sentences, keywords,
// and speakers.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("project %s not found", id)
	}
	return nil
}

// UpsertProject inserts a project or replaces an existing row's fields with
// the incoming values. Snapshot import relies on this so the same document can
// be applied repeatedly without duplicating rows.
func (s *Store) UpsertProject(ctx context.Context, project *Project) error {
	if project == nil {
		return errors.New("project is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, original_file, audio_file, status, error_message,
             total_sentences, processed_sentences, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             name = excluded.name,
             original_file = excluded.original_file,
             audio_file = excluded.audio_file,
             status = excluded.status,
             error_message = excluded.error_message,
             total_sentences = excluded.total_sentences,
             processed_sentences = excluded.processed_sentences,
             created_at = excluded.created_at,
             updated_at = excluded.updated_at`,
		project.ID,
		project.Name,
		project.OriginalFile,
		nullableString(project.AudioFile),
		project.Status,
		nullableString(project.ErrorMessage),
		project.TotalSentences,
		project.ProcessedSentences,
		project.CreatedAt.UTC().Format(time.RFC3339Nano),
		project.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert project %s: %w", project.ID, err)
	}
	return nil
}

func (s *Store) updateProject(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("project %s not found", id)
	}
	return nil
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
