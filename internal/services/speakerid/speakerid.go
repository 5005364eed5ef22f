// Package speakerid infers speaker identities from conversation transcripts
// using contextual clues (introductions, name mentions, roles).
//
// Identification is best-effort by contract: it can never fail the pipeline.
// Instead of returning an error, Identify returns an Outcome whose Suppressed
// field records any swallowed failure, so the caller's decision to proceed is
// visible rather than hidden in a catch-all.
package speakerid

import (
	"context"
	"fmt"
	"strings"

	"dutchlearn/internal/services/openai"
)

const promptTemplate = `You are analyzing a Dutch conversation transcript titled "%s".
The transcript has speaker labels (A, B, C, etc.) assigned by automatic diarization.

Based on context clues (introductions, name mentions, job titles, how others address them),
identify each speaker.

<transcript>
%s
</transcript>

Return ONLY a valid JSON object in this exact format:
{
  "speakers": [
    {
      "label": "A",
      "name": "Jan de Vries",
      "role": "IT Service Manager",
      "confidence": "high",
      "evidence": "Introduced himself at the start and others refer to him as Jan"
    }
  ]
}

Rules:
- If you cannot determine a name, use a descriptive label in Dutch like "de presentator" or "de manager"
- confidence: "high" = name explicitly mentioned, "medium" = inferred from context, "low" = guess
- evidence: brief explanation of how you determined the identity
- Include ALL speaker labels found in the transcript`

const systemPrompt = "You identify speakers in transcripts. Always respond with valid JSON only."

// TranscriptEntry is one ordered {label, text} pair fed to the identifier.
type TranscriptEntry struct {
	Label string
	Text  string
}

// Identification is the inferred identity for one diarization label.
type Identification struct {
	Label      string
	Name       string
	Role       string
	Confidence float64
	Evidence   string
}

// Outcome is the result of a best-effort identification run. When the
// underlying call or parse failed, Identified is empty and Suppressed holds
// the swallowed error.
type Outcome struct {
	Identified map[string]Identification
	Suppressed error
}

// Completer is the subset of the chat client the identifier needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Identifier infers speaker names from transcripts.
type Identifier struct {
	client Completer
}

// New constructs an identifier on top of a chat completion client.
func New(client Completer) *Identifier {
	return &Identifier{client: client}
}

// Identify maps diarization labels to inferred identities. It never returns
// an error; failures are captured in the outcome's Suppressed field.
func (s *Identifier) Identify(ctx context.Context, transcript []TranscriptEntry, projectName string) Outcome {
	if len(transcript) == 0 {
		return Outcome{Identified: map[string]Identification{}}
	}

	lines := make([]string, 0, len(transcript))
	for _, entry := range transcript {
		lines = append(lines, fmt.Sprintf("[%s] %s", entry.Label, entry.Text))
	}
	prompt := fmt.Sprintf(promptTemplate, projectName, strings.Join(lines, "\n"))

	content, err := s.client.CompleteJSON(ctx, systemPrompt, prompt)
	if err != nil {
		return Outcome{Identified: map[string]Identification{}, Suppressed: err}
	}

	identified, err := parseResponse(content)
	if err != nil {
		return Outcome{Identified: map[string]Identification{}, Suppressed: err}
	}
	return Outcome{Identified: identified}
}

func parseResponse(content string) (map[string]Identification, error) {
	var parsed struct {
		Speakers []struct {
			Label      string `json:"label"`
			Name       string `json:"name"`
			Role       string `json:"role"`
			Confidence string `json:"confidence"`
			Evidence   string `json:"evidence"`
		} `json:"speakers"`
	}
	if err := openai.DecodeModelJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("parse identification response: %w", err)
	}

	results := make(map[string]Identification, len(parsed.Speakers))
	for _, entry := range parsed.Speakers {
		label := strings.TrimSpace(entry.Label)
		if label == "" {
			continue
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = "Speaker " + label
		}
		results[label] = Identification{
			Label:      label,
			Name:       name,
			Role:       strings.TrimSpace(entry.Role),
			Confidence: confidenceScore(entry.Confidence),
			Evidence:   strings.TrimSpace(entry.Evidence),
		}
	}
	return results, nil
}

// confidenceScore maps the model's categorical confidence onto the 0..1 scale
// stored with each speaker.
func confidenceScore(value string) float64 {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return 0.9
	case "medium":
		return 0.6
	default:
		return 0.3
	}
}
