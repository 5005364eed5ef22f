package snapshot

import "time"

// Document is the canonical export of one project's full entity graph.
// Timestamps travel as RFC 3339 strings so documents written by other
// devices, possibly with differing precision, still parse.
type Document struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Status    string           `json:"status"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
	Speakers  []SpeakerRecord  `json:"speakers"`
	Sentences []SentenceRecord `json:"sentences"`
	Keywords  []KeywordRecord  `json:"keywords"`
	Progress  ProgressBlock    `json:"progress"`
}

// SpeakerRecord is one diarized speaker in the document.
type SpeakerRecord struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	DisplayName string  `json:"display_name,omitempty"`
	Confidence  float64 `json:"confidence"`
	Evidence    string  `json:"evidence,omitempty"`
	IsManual    bool    `json:"is_manual"`
}

// SentenceRecord is one sentence with its embedded keyword list and learning
// progress.
type SentenceRecord struct {
	ID            string       `json:"id"`
	Index         int          `json:"index"`
	Text          string       `json:"text"`
	StartTime     float64      `json:"start_time"`
	EndTime       float64      `json:"end_time"`
	TranslationEN string       `json:"translation_en,omitempty"`
	ExplanationNL string       `json:"explanation_nl,omitempty"`
	ExplanationEN string       `json:"explanation_en,omitempty"`
	SpeakerID     string       `json:"speaker_id,omitempty"`
	Learned       bool         `json:"learned"`
	LearnCount    int          `json:"learn_count"`
	IsDifficult   bool         `json:"is_difficult"`
	ReviewCount   int          `json:"review_count"`
	LastReviewed  string       `json:"last_reviewed,omitempty"`
	Keywords      []KeywordRef `json:"keywords"`
}

// KeywordRef is the keyword shape embedded in a sentence.
type KeywordRef struct {
	Word      string `json:"word"`
	MeaningNL string `json:"meaning_nl,omitempty"`
	MeaningEN string `json:"meaning_en,omitempty"`
}

// KeywordRecord is one entry in the document's flat keyword list. Unlike the
// embedded refs it carries identity, which Import needs for upserts.
type KeywordRecord struct {
	ID         string `json:"id"`
	SentenceID string `json:"sentence_id"`
	Word       string `json:"word"`
	MeaningNL  string `json:"meaning_nl,omitempty"`
	MeaningEN  string `json:"meaning_en,omitempty"`
}

// ProgressBlock carries the aggregates recomputed at export and merge time.
type ProgressBlock struct {
	TotalSentences     int    `json:"total_sentences"`
	LearnedSentences   int    `json:"learned_sentences"`
	DifficultSentences int    `json:"difficult_sentences"`
	LastSync           string `json:"last_sync,omitempty"`
}

// parseTimestamp accepts RFC 3339 with or without sub-second precision and
// the space-separated variant some exporters emit. Returns false when the
// value does not parse.
func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
