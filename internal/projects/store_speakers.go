package projects

import (
	"context"
	"errors"
	"fmt"
)

// InsertSpeakers persists the diarization labels discovered during
// transcription. Confidence and display names are filled in later by the
// identify stage.
func (s *Store) InsertSpeakers(ctx context.Context, speakers []*Speaker) error {
	if len(speakers) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin speaker tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, speaker := range speakers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO speakers (id, project_id, label, display_name, confidence, evidence, is_manual)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			speaker.ID,
			speaker.ProjectID,
			speaker.Label,
			nullableString(speaker.DisplayName),
			speaker.Confidence,
			nullableString(speaker.Evidence),
			boolToInt(speaker.IsManual),
		); err != nil {
			return fmt.Errorf("insert speaker %s: %w", speaker.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit speakers: %w", err)
	}
	return nil
}

// SpeakersByProject returns a project's speakers ordered by label.
func (s *Store) SpeakersByProject(ctx context.Context, projectID string) ([]*Speaker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+speakerColumns+` FROM speakers WHERE project_id = ? ORDER BY label`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query speakers: %w", err)
	}
	defer rows.Close()

	var result []*Speaker
	for rows.Next() {
		speaker, err := scanSpeaker(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, speaker)
	}
	return result, rows.Err()
}

// ApplyIdentification writes a machine-derived name and confidence for one
// diarization label. Speakers that were named manually keep their name; the
// update is a no-op for those rows.
func (s *Store) ApplyIdentification(ctx context.Context, projectID, label, displayName string, confidence float64, evidence string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE speakers SET display_name = ?, confidence = ?, evidence = ?
         WHERE project_id = ? AND label = ? AND is_manual = 0`,
		nullableString(displayName), confidence, nullableString(evidence), projectID, label)
	if err != nil {
		return fmt.Errorf("apply identification: %w", err)
	}
	return nil
}

// RenameSpeaker records a user-chosen display name and locks the row against
// future machine identification.
func (s *Store) RenameSpeaker(ctx context.Context, id, displayName string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE speakers SET display_name = ?, is_manual = 1 WHERE id = ?`,
		displayName, id)
	if err != nil {
		return fmt.Errorf("rename speaker: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename speaker: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("speaker %s not found", id)
	}
	return nil
}

// UpsertSpeaker inserts a speaker or replaces an existing row with the same
// project and label, keyed on the natural (project_id, label) pair so imports
// from another device never duplicate diarization labels.
func (s *Store) UpsertSpeaker(ctx context.Context, speaker *Speaker) error {
	if speaker == nil {
		return errors.New("speaker is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO speakers (id, project_id, label, display_name, confidence, evidence, is_manual)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(project_id, label) DO UPDATE SET
             display_name = excluded.display_name,
             confidence = excluded.confidence,
             evidence = excluded.evidence,
             is_manual = excluded.is_manual`,
		speaker.ID,
		speaker.ProjectID,
		speaker.Label,
		nullableString(speaker.DisplayName),
		speaker.Confidence,
		nullableString(speaker.Evidence),
		boolToInt(speaker.IsManual),
	)
	if err != nil {
		return fmt.Errorf("upsert speaker %s: %w", speaker.Label, err)
	}
	return nil
}
