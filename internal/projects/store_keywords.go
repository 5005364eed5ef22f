package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReplaceKeywords swaps a sentence's keyword set for the one produced by the
// explanation stage. The explain stage may run more than once after a retry,
// so stale rows are cleared first.
func (s *Store) ReplaceKeywords(ctx context.Context, sentenceID string, keywords []*Keyword) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin keyword tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM keywords WHERE sentence_id = ?`, sentenceID); err != nil {
		return fmt.Errorf("clear keywords: %w", err)
	}
	for _, keyword := range keywords {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO keywords (id, sentence_id, word, meaning_nl, meaning_en) VALUES (?, ?, ?, ?, ?)`,
			keyword.ID,
			sentenceID,
			keyword.Word,
			nullableString(keyword.MeaningNL),
			nullableString(keyword.MeaningEN),
		); err != nil {
			return fmt.Errorf("insert keyword %q: %w", keyword.Word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit keywords: %w", err)
	}
	return nil
}

// KeywordsBySentence returns a sentence's keywords in insertion order.
func (s *Store) KeywordsBySentence(ctx context.Context, sentenceID string) ([]*Keyword, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+keywordColumns+` FROM keywords WHERE sentence_id = ? ORDER BY rowid`, sentenceID)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer rows.Close()
	return collectKeywords(rows)
}

// KeywordsByProject returns every keyword across a project's sentences,
// ordered by sentence position. Used when exporting a snapshot.
func (s *Store) KeywordsByProject(ctx context.Context, projectID string) ([]*Keyword, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT k.id, k.sentence_id, k.word, k.meaning_nl, k.meaning_en
         FROM keywords k
         JOIN sentences sn ON sn.id = k.sentence_id
         WHERE sn.project_id = ?
         ORDER BY sn.idx, k.rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query project keywords: %w", err)
	}
	defer rows.Close()
	return collectKeywords(rows)
}

// UpsertKeyword inserts a keyword or refreshes its meanings when the id is
// already present.
func (s *Store) UpsertKeyword(ctx context.Context, keyword *Keyword) error {
	if keyword == nil {
		return errors.New("keyword is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO keywords (id, sentence_id, word, meaning_nl, meaning_en)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             word = excluded.word,
             meaning_nl = excluded.meaning_nl,
             meaning_en = excluded.meaning_en`,
		keyword.ID,
		keyword.SentenceID,
		keyword.Word,
		nullableString(keyword.MeaningNL),
		nullableString(keyword.MeaningEN),
	)
	if err != nil {
		return fmt.Errorf("upsert keyword %q: %w", keyword.Word, err)
	}
	return nil
}

func collectKeywords(rows *sql.Rows) ([]*Keyword, error) {
	var result []*Keyword
	for rows.Next() {
		keyword, err := scanKeyword(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, keyword)
	}
	return result, rows.Err()
}
