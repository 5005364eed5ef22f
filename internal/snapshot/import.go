package snapshot

import (
	"context"
	"fmt"
	"time"

	"dutchlearn/internal/projects"
)

// Import applies a document to local storage as an upsert: existing rows are
// updated field by field and no sentence, keyword, or speaker id is ever
// duplicated. Applying the same document twice is a no-op beyond timestamps.
func Import(ctx context.Context, store *projects.Store, doc *Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document has no project id")
	}

	status, ok := projects.ParseStatus(doc.Status)
	if !ok {
		status = projects.StatusReady
	}

	now := time.Now().UTC()
	createdAt, createdOK := parseTimestamp(doc.CreatedAt)
	if !createdOK {
		createdAt = now
	}

	project := &projects.Project{
		ID:             doc.ID,
		Name:           firstNonEmpty(doc.Name, doc.ID),
		Status:         status,
		TotalSentences: len(doc.Sentences),
		CreatedAt:      createdAt,
		UpdatedAt:      now,
	}
	project.ProcessedSentences = project.TotalSentences

	// The document carries no local-only fields; keep them from the existing
	// row so an import never blanks the upload or audio paths.
	existing, err := store.GetProject(ctx, doc.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		project.OriginalFile = existing.OriginalFile
		project.AudioFile = existing.AudioFile
		project.CreatedAt = existing.CreatedAt
		if createdOK && createdAt.Before(existing.CreatedAt) {
			project.CreatedAt = createdAt
		}
	}
	if err := store.UpsertProject(ctx, project); err != nil {
		return err
	}

	for _, record := range doc.Speakers {
		speaker := &projects.Speaker{
			ID:          record.ID,
			ProjectID:   doc.ID,
			Label:       record.Label,
			DisplayName: record.DisplayName,
			Confidence:  record.Confidence,
			Evidence:    record.Evidence,
			IsManual:    record.IsManual,
		}
		if err := store.UpsertSpeaker(ctx, speaker); err != nil {
			return err
		}
	}

	for _, record := range doc.Sentences {
		sentence := &projects.Sentence{
			ID:            record.ID,
			ProjectID:     doc.ID,
			Index:         record.Index,
			Text:          record.Text,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			TranslationEN: record.TranslationEN,
			ExplanationNL: record.ExplanationNL,
			ExplanationEN: record.ExplanationEN,
			SpeakerID:     record.SpeakerID,
			Learned:       record.Learned,
			LearnCount:    record.LearnCount,
			IsDifficult:   record.IsDifficult,
			ReviewCount:   record.ReviewCount,
		}
		if reviewed, ok := parseTimestamp(record.LastReviewed); ok {
			sentence.LastReviewed = &reviewed
		}
		if err := store.UpsertSentence(ctx, sentence); err != nil {
			return err
		}
	}

	for _, record := range doc.Keywords {
		keyword := &projects.Keyword{
			ID:         record.ID,
			SentenceID: record.SentenceID,
			Word:       record.Word,
			MeaningNL:  record.MeaningNL,
			MeaningEN:  record.MeaningEN,
		}
		if err := store.UpsertKeyword(ctx, keyword); err != nil {
			return err
		}
	}

	return nil
}
