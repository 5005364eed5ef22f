package projects

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a project.
type Status string

const (
	StatusPending      Status = "pending"
	StatusExtracting   Status = "extracting"
	StatusTranscribing Status = "transcribing"
	StatusIdentifying  Status = "identifying"
	StatusExplaining   Status = "explaining"
	StatusReady        Status = "ready"
	StatusError        Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusTranscribing,
	StatusIdentifying,
	StatusExplaining,
	StatusReady,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends the pipeline.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

// Project represents one uploaded recording and its processing state.
type Project struct {
	ID                 string
	Name               string
	OriginalFile       string
	AudioFile          string
	Status             Status
	ErrorMessage       string
	TotalSentences     int
	ProcessedSentences int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Progress derives the overall processing percentage from the project status.
// During the explaining stage the percentage advances fractionally with the
// processed sentence count so callers can poll mid-stage.
func (p *Project) Progress() int {
	switch p.Status {
	case StatusPending, StatusError:
		return 0
	case StatusExtracting:
		return 10
	case StatusTranscribing:
		return 30
	case StatusIdentifying:
		return 40
	case StatusExplaining:
		if p.TotalSentences > 0 {
			return 50 + int(float64(p.ProcessedSentences)/float64(p.TotalSentences)*45)
		}
		return 50
	case StatusReady:
		return 100
	default:
		return 0
	}
}

// StageDescription returns a human-readable description of the current stage.
func (p *Project) StageDescription() string {
	switch p.Status {
	case StatusPending:
		return "Waiting to start"
	case StatusExtracting:
		return "Extracting audio"
	case StatusTranscribing:
		return "Transcribing audio"
	case StatusIdentifying:
		return "Identifying speakers"
	case StatusExplaining:
		return "Generating explanations"
	case StatusReady:
		return "Processing complete"
	case StatusError:
		if p.ErrorMessage != "" {
			return "Error: " + p.ErrorMessage
		}
		return "Error"
	default:
		return "Unknown status"
	}
}

// Sentence is one time-aligned, per-speaker transcribed sentence.
type Sentence struct {
	ID            string
	ProjectID     string
	Index         int
	Text          string
	StartTime     float64
	EndTime       float64
	TranslationEN string
	ExplanationNL string
	ExplanationEN string
	SpeakerID     string
	Learned       bool
	LearnCount    int
	IsDifficult   bool
	ReviewCount   int
	LastReviewed  *time.Time
}

// Keyword is one vocabulary entry extracted from a sentence.
type Keyword struct {
	ID         string
	SentenceID string
	Word       string
	MeaningNL  string
	MeaningEN  string
}

// Speaker is one diarized voice in a project. Label is the diarization label
// assigned by the transcription service; DisplayName may be filled in by the
// identification stage or set manually. Once IsManual is set, automatic
// identification never overwrites the record.
type Speaker struct {
	ID          string
	ProjectID   string
	Label       string
	DisplayName string
	Confidence  float64
	Evidence    string
	IsManual    bool
}
