package projects

import (
	"database/sql"
	"errors"
	"time"
)

const projectColumns = "id, name, original_file, audio_file, status, error_message, total_sentences, processed_sentences, created_at, updated_at"

const sentenceColumns = "id, project_id, idx, text, start_time, end_time, translation_en, explanation_nl, explanation_en, speaker_id, learned, learn_count, is_difficult, review_count, last_reviewed"

const speakerColumns = "id, project_id, label, display_name, confidence, evidence, is_manual"

const keywordColumns = "id, sentence_id, word, meaning_nl, meaning_en"

type rowScanner interface{ Scan(dest ...any) error }

func scanProject(scanner rowScanner) (*Project, error) {
	var (
		project      Project
		statusStr    string
		audioFile    sql.NullString
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&project.ID,
		&project.Name,
		&project.OriginalFile,
		&audioFile,
		&statusStr,
		&errorMessage,
		&project.TotalSentences,
		&project.ProcessedSentences,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	project.Status = Status(statusStr)
	project.AudioFile = audioFile.String
	project.ErrorMessage = errorMessage.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		project.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		project.UpdatedAt = updated
	}
	return &project, nil
}

func scanSentence(scanner rowScanner) (*Sentence, error) {
	var (
		sentence      Sentence
		translation   sql.NullString
		explanationNL sql.NullString
		explanationEN sql.NullString
		speakerID     sql.NullString
		learned       sql.NullInt64
		difficult     sql.NullInt64
		reviewedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&sentence.ID,
		&sentence.ProjectID,
		&sentence.Index,
		&sentence.Text,
		&sentence.StartTime,
		&sentence.EndTime,
		&translation,
		&explanationNL,
		&explanationEN,
		&speakerID,
		&learned,
		&sentence.LearnCount,
		&difficult,
		&sentence.ReviewCount,
		&reviewedRaw,
	); err != nil {
		return nil, err
	}

	sentence.TranslationEN = translation.String
	sentence.ExplanationNL = explanationNL.String
	sentence.ExplanationEN = explanationEN.String
	sentence.SpeakerID = speakerID.String
	sentence.Learned = learned.Valid && learned.Int64 != 0
	sentence.IsDifficult = difficult.Valid && difficult.Int64 != 0
	if reviewedRaw.Valid {
		if reviewed, err := parseTimeString(reviewedRaw.String); err == nil {
			sentence.LastReviewed = &reviewed
		}
	}
	return &sentence, nil
}

func scanSpeaker(scanner rowScanner) (*Speaker, error) {
	var (
		speaker     Speaker
		displayName sql.NullString
		evidence    sql.NullString
		isManual    sql.NullInt64
	)

	if err := scanner.Scan(
		&speaker.ID,
		&speaker.ProjectID,
		&speaker.Label,
		&displayName,
		&speaker.Confidence,
		&evidence,
		&isManual,
	); err != nil {
		return nil, err
	}

	speaker.DisplayName = displayName.String
	speaker.Evidence = evidence.String
	speaker.IsManual = isManual.Valid && isManual.Int64 != 0
	return &speaker, nil
}

func scanKeyword(scanner rowScanner) (*Keyword, error) {
	var (
		keyword   Keyword
		meaningNL sql.NullString
		meaningEN sql.NullString
	)

	if err := scanner.Scan(
		&keyword.ID,
		&keyword.SentenceID,
		&keyword.Word,
		&meaningNL,
		&meaningEN,
	); err != nil {
		return nil, err
	}

	keyword.MeaningNL = meaningNL.String
	keyword.MeaningEN = meaningEN.String
	return &keyword, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
