package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertSentences persists sentences in one transaction, ordered by the Index
// field callers assign 0..n-1. Every stored field is written, so pre-populated
// review or enrichment state survives the insert.
func (s *Store) InsertSentences(ctx context.Context, sentences []*Sentence) error {
	if len(sentences) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sentence tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sentences (id, project_id, idx, text, start_time, end_time,
             translation_en, explanation_nl, explanation_en, speaker_id,
             learned, learn_count, is_difficult, review_count, last_reviewed)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare sentence insert: %w", err)
	}
	defer stmt.Close()

	for _, sentence := range sentences {
		if _, err := stmt.ExecContext(ctx,
			sentence.ID,
			sentence.ProjectID,
			sentence.Index,
			sentence.Text,
			sentence.StartTime,
			sentence.EndTime,
			nullableString(sentence.TranslationEN),
			nullableString(sentence.ExplanationNL),
			nullableString(sentence.ExplanationEN),
			nullableString(sentence.SpeakerID),
			boolToInt(sentence.Learned),
			sentence.LearnCount,
			boolToInt(sentence.IsDifficult),
			sentence.ReviewCount,
			nullableTime(sentence.LastReviewed),
		); err != nil {
			return fmt.Errorf("insert sentence %d: %w", sentence.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sentences: %w", err)
	}
	return nil
}

// SentencesByProject returns a project's sentences in playback order.
func (s *Store) SentencesByProject(ctx context.Context, projectID string) ([]*Sentence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sentenceColumns+` FROM sentences WHERE project_id = ? ORDER BY idx`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query sentences: %w", err)
	}
	defer rows.Close()

	var result []*Sentence
	for rows.Next() {
		sentence, err := scanSentence(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sentence)
	}
	return result, rows.Err()
}

// GetSentence fetches one sentence by identifier. Returns nil when absent.
func (s *Store) GetSentence(ctx context.Context, id string) (*Sentence, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sentenceColumns+` FROM sentences WHERE id = ?`, id)
	sentence, err := scanSentence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sentence: %w", err)
	}
	return sentence, nil
}

// SetSentenceEnrichment records the explanation stage output for one sentence.
func (s *Store) SetSentenceEnrichment(ctx context.Context, id, translationEN, explanationNL, explanationEN string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sentences SET translation_en = ?, explanation_nl = ?, explanation_en = ? WHERE id = ?`,
		nullableString(translationEN),
		nullableString(explanationNL),
		nullableString(explanationEN),
		id,
	)
	if err != nil {
		return fmt.Errorf("set sentence enrichment: %w", err)
	}
	return nil
}

// MarkLearned records a learn event: toggles the learned flag on and bumps the
// learn count.
func (s *Store) MarkLearned(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sentences SET learned = 1, learn_count = learn_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark learned: %w", err)
	}
	return nil
}

// SetDifficult flips the difficulty flag.
func (s *Store) SetDifficult(ctx context.Context, id string, difficult bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sentences SET is_difficult = ? WHERE id = ?`, boolToInt(difficult), id)
	if err != nil {
		return fmt.Errorf("set difficult: %w", err)
	}
	return nil
}

// RecordReview bumps the review counter and stamps the review time.
func (s *Store) RecordReview(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sentences SET review_count = review_count + 1, last_reviewed = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("record review: %w", err)
	}
	return nil
}

// UpsertSentence inserts a sentence or updates every field of an existing row.
// Used by snapshot import so re-importing the same document never duplicates
// rows.
func (s *Store) UpsertSentence(ctx context.Context, sentence *Sentence) error {
	if sentence == nil {
		return errors.New("sentence is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sentences (id, project_id, idx, text, start_time, end_time,
             translation_en, explanation_nl, explanation_en, speaker_id,
             learned, learn_count, is_difficult, review_count, last_reviewed)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             idx = excluded.idx,
             text = excluded.text,
             start_time = excluded.start_time,
             end_time = excluded.end_time,
             translation_en = excluded.translation_en,
             explanation_nl = excluded.explanation_nl,
             explanation_en = excluded.explanation_en,
             speaker_id = excluded.speaker_id,
             learned = excluded.learned,
             learn_count = excluded.learn_count,
             is_difficult = excluded.is_difficult,
             review_count = excluded.review_count,
             last_reviewed = excluded.last_reviewed`,
		sentence.ID,
		sentence.ProjectID,
		sentence.Index,
		sentence.Text,
		sentence.StartTime,
		sentence.EndTime,
		nullableString(sentence.TranslationEN),
		nullableString(sentence.ExplanationNL),
		nullableString(sentence.ExplanationEN),
		nullableString(sentence.SpeakerID),
		boolToInt(sentence.Learned),
		sentence.LearnCount,
		boolToInt(sentence.IsDifficult),
		sentence.ReviewCount,
		nullableTime(sentence.LastReviewed),
	)
	if err != nil {
		return fmt.Errorf("upsert sentence %s: %w", sentence.ID, err)
	}
	return nil
}
