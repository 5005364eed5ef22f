package snapshot

import (
	"context"
	"fmt"
	"time"

	"dutchlearn/internal/projects"
)

// Export serializes a project's full entity graph into the canonical
// document. The progress aggregates are computed from the sentence rows at
// export time.
func Export(ctx context.Context, store *projects.Store, projectID string) (*Document, error) {
	project, err := store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s not found", projectID)
	}

	sentences, err := store.SentencesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	speakers, err := store.SpeakersByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	keywords, err := store.KeywordsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	keywordsBySentence := make(map[string][]KeywordRef)
	flatKeywords := make([]KeywordRecord, 0, len(keywords))
	for _, keyword := range keywords {
		keywordsBySentence[keyword.SentenceID] = append(keywordsBySentence[keyword.SentenceID], KeywordRef{
			Word:      keyword.Word,
			MeaningNL: keyword.MeaningNL,
			MeaningEN: keyword.MeaningEN,
		})
		flatKeywords = append(flatKeywords, KeywordRecord{
			ID:         keyword.ID,
			SentenceID: keyword.SentenceID,
			Word:       keyword.Word,
			MeaningNL:  keyword.MeaningNL,
			MeaningEN:  keyword.MeaningEN,
		})
	}

	doc := &Document{
		ID:        project.ID,
		Name:      project.Name,
		Status:    string(project.Status),
		CreatedAt: project.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: project.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Speakers:  make([]SpeakerRecord, 0, len(speakers)),
		Sentences: make([]SentenceRecord, 0, len(sentences)),
		Keywords:  flatKeywords,
	}

	for _, speaker := range speakers {
		doc.Speakers = append(doc.Speakers, SpeakerRecord{
			ID:          speaker.ID,
			Label:       speaker.Label,
			DisplayName: speaker.DisplayName,
			Confidence:  speaker.Confidence,
			Evidence:    speaker.Evidence,
			IsManual:    speaker.IsManual,
		})
	}

	learned, difficult := 0, 0
	for _, sentence := range sentences {
		record := SentenceRecord{
			ID:            sentence.ID,
			Index:         sentence.Index,
			Text:          sentence.Text,
			StartTime:     sentence.StartTime,
			EndTime:       sentence.EndTime,
			TranslationEN: sentence.TranslationEN,
			ExplanationNL: sentence.ExplanationNL,
			ExplanationEN: sentence.ExplanationEN,
			SpeakerID:     sentence.SpeakerID,
			Learned:       sentence.Learned,
			LearnCount:    sentence.LearnCount,
			IsDifficult:   sentence.IsDifficult,
			ReviewCount:   sentence.ReviewCount,
			Keywords:      keywordsBySentence[sentence.ID],
		}
		if sentence.LastReviewed != nil {
			record.LastReviewed = sentence.LastReviewed.UTC().Format(time.RFC3339Nano)
		}
		if record.Keywords == nil {
			record.Keywords = []KeywordRef{}
		}
		if sentence.Learned {
			learned++
		}
		if sentence.IsDifficult {
			difficult++
		}
		doc.Sentences = append(doc.Sentences, record)
	}

	doc.Progress = ProgressBlock{
		TotalSentences:     len(sentences),
		LearnedSentences:   learned,
		DifficultSentences: difficult,
		LastSync:           time.Now().UTC().Format(time.RFC3339Nano),
	}

	return doc, nil
}
