package assemblyai

import (
	"sort"

	"dutchlearn/internal/splitter"
)

// parseTranscript converts a completed transcript into utterances with
// word-level timestamps and per-speaker evidence. Times arrive in
// milliseconds and are converted to seconds. Words are matched to utterances
// by time overlap because the API reports them as separate flat lists.
func parseTranscript(transcript *transcriptResponse) *Result {
	words := make([]splitter.Word, 0, len(transcript.Words))
	for _, word := range transcript.Words {
		words = append(words, splitter.Word{
			Text:  word.Text,
			Start: float64(word.Start) / 1000.0,
			End:   float64(word.End) / 1000.0,
		})
	}

	evidenceByLabel := make(map[string][]string)
	utterances := make([]splitter.Utterance, 0, len(transcript.Utterances))
	for _, entry := range transcript.Utterances {
		label := entry.Speaker
		if label == "" {
			label = "A"
		}
		if len(evidenceByLabel[label]) < evidenceUtterances {
			evidenceByLabel[label] = append(evidenceByLabel[label], entry.Text)
		}

		start := float64(entry.Start) / 1000.0
		end := float64(entry.End) / 1000.0
		var matched []splitter.Word
		for _, word := range words {
			if word.Start >= start-wordMatchTolerance && word.End <= end+wordMatchTolerance {
				matched = append(matched, word)
			}
		}

		utterances = append(utterances, splitter.Utterance{
			Text:    entry.Text,
			Start:   start,
			End:     end,
			Speaker: label,
			Words:   matched,
		})
	}

	labels := make([]string, 0, len(evidenceByLabel))
	for label := range evidenceByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	speakers := make([]SpeakerInfo, 0, len(labels))
	for _, label := range labels {
		speakers = append(speakers, SpeakerInfo{
			Label:    label,
			Evidence: evidenceByLabel[label],
		})
	}

	return &Result{Speakers: speakers, Utterances: utterances}
}
