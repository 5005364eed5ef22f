// Package splitter divides long diarized utterances into bounded segments
// while remapping word-level timestamps, so playback stays aligned with the
// audio after splitting.
package splitter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Word is one transcribed token with its audio-aligned time span in seconds.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Utterance is one diarized speech turn. Words carries the per-token
// timestamps reported by the transcription service; it may be shorter than
// the tokenized text when the service's tokenization disagrees.
type Utterance struct {
	Text    string
	Start   float64
	End     float64
	Speaker string
	Words   []Word
}

// WordCount returns the number of whitespace-separated tokens in the text.
func (u Utterance) WordCount() int {
	return len(strings.Fields(u.Text))
}

const minSegmentWords = 3

var clauseBoundaryRunes = map[rune]struct{}{
	',': {}, ';': {}, ':': {}, '—': {}, '–': {},
}

// Splitter divides utterances into segments of at most maxWords words.
//
// Strategy, applied per utterance:
//  1. Split on sentence-ending punctuation (. ? !) followed by whitespace
//     and an uppercase letter.
//  2. Split remaining over-budget segments at the clause boundary (, ; : and
//     dashes) closest to the word-count midpoint, recursively.
//  3. Hard-chunk anything still over budget at exactly maxWords words.
//  4. Merge segments under three words into a neighbor when that does not
//     push the neighbor over budget.
type Splitter struct {
	maxWords int
}

// New returns a Splitter with the given word budget. Budgets below one fall
// back to 100.
func New(maxWords int) *Splitter {
	if maxWords < 1 {
		maxWords = 100
	}
	return &Splitter{maxWords: maxWords}
}

// Split divides each utterance into bounded segments, preserving order.
func (s *Splitter) Split(utterances []Utterance) []Utterance {
	var result []Utterance
	for _, utt := range utterances {
		result = append(result, s.splitUtterance(utt)...)
	}
	return result
}

func (s *Splitter) splitUtterance(utt Utterance) []Utterance {
	segments := splitSentences(utt.Text)

	var refined []string
	for _, seg := range segments {
		if len(strings.Fields(seg)) > s.maxWords {
			refined = append(refined, s.splitOnClauses(seg)...)
		} else {
			refined = append(refined, seg)
		}
	}

	var final []string
	for _, seg := range refined {
		if len(strings.Fields(seg)) > s.maxWords {
			final = append(final, s.hardSplit(seg)...)
		} else {
			final = append(final, seg)
		}
	}

	final = s.mergeShortSegments(final)

	if len(final) <= 1 {
		return []Utterance{utt}
	}
	return mapToUtterances(final, utt)
}

// splitSentences breaks text after sentence-final punctuation followed by
// whitespace and an uppercase letter. Abbreviation periods ("d.w.z. want")
// are left alone because the next letter is lowercase.
func splitSentences(text string) []string {
	var segments []string
	runes := []rune(text)
	segStart := 0
	i := 0
	for i < len(runes) {
		r := runes[i]
		if r == '.' || r == '!' || r == '?' {
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j > i+1 && j < len(runes) && unicode.IsUpper(runes[j]) {
				if seg := strings.TrimSpace(string(runes[segStart : i+1])); seg != "" {
					segments = append(segments, seg)
				}
				segStart = j
				i = j
				continue
			}
		}
		i++
	}
	if seg := strings.TrimSpace(string(runes[segStart:])); seg != "" {
		segments = append(segments, seg)
	}
	return segments
}

// splitOnClauses splits at the clause boundary closest to the segment's word
// midpoint, recursing on both halves. Equidistant boundaries resolve to the
// lowest word index so splits are reproducible.
func (s *Splitter) splitOnClauses(text string) []string {
	words := strings.Fields(text)
	total := len(words)
	if total <= s.maxWords {
		return []string{text}
	}

	// The final word is never a usable boundary: splitting there leaves the
	// whole text on the left and recurses without progress.
	var boundaries []int
	for i, word := range words[:total-1] {
		last, _ := utf8.DecodeLastRuneInString(word)
		if _, ok := clauseBoundaryRunes[last]; ok {
			boundaries = append(boundaries, i)
		}
	}
	if len(boundaries) == 0 {
		return []string{text}
	}

	midpoint := total / 2
	best := boundaries[0]
	for _, pos := range boundaries[1:] {
		if abs(pos-midpoint) < abs(best-midpoint) {
			best = pos
		}
	}

	left := strings.Join(words[:best+1], " ")
	right := strings.Join(words[best+1:], " ")

	var result []string
	if len(strings.Fields(left)) > s.maxWords {
		result = append(result, s.splitOnClauses(left)...)
	} else {
		result = append(result, left)
	}
	if right != "" {
		if len(strings.Fields(right)) > s.maxWords {
			result = append(result, s.splitOnClauses(right)...)
		} else {
			result = append(result, right)
		}
	}
	return result
}

func (s *Splitter) hardSplit(text string) []string {
	words := strings.Fields(text)
	var segments []string
	for i := 0; i < len(words); i += s.maxWords {
		end := i + s.maxWords
		if end > len(words) {
			end = len(words)
		}
		segments = append(segments, strings.Join(words[i:end], " "))
	}
	return segments
}

// mergeShortSegments folds segments under minSegmentWords into the previous
// segment when one exists, otherwise into the next. A merge that would push
// the receiving segment over budget is skipped and the short segment kept
// standalone.
func (s *Splitter) mergeShortSegments(segments []string) []string {
	if len(segments) <= 1 {
		return segments
	}

	var merged []string
	for i := 0; i < len(segments); i++ {
		seg := segments[i]
		count := len(strings.Fields(seg))
		if count >= minSegmentWords {
			merged = append(merged, seg)
			continue
		}
		if len(merged) > 0 && len(strings.Fields(merged[len(merged)-1]))+count <= s.maxWords {
			merged[len(merged)-1] = merged[len(merged)-1] + " " + seg
			continue
		}
		if i+1 < len(segments) && len(strings.Fields(segments[i+1]))+count <= s.maxWords {
			segments[i+1] = seg + " " + segments[i+1]
			continue
		}
		merged = append(merged, seg)
	}
	return merged
}

// mapToUtterances assigns word timestamps to segments by cumulative word
// count. When the word array is shorter than the tokenized text, the final
// segment absorbs every remaining word so no timestamp is dropped. The first
// segment's start and last segment's end are pinned to the original
// utterance bounds.
func mapToUtterances(texts []string, original Utterance) []Utterance {
	words := original.Words
	utterances := make([]Utterance, 0, len(texts))
	wordIdx := 0

	for i, text := range texts {
		segWordCount := len(strings.Fields(text))

		var segWords []Word
		if i == len(texts)-1 {
			segWords = words[min(wordIdx, len(words)):]
			wordIdx = len(words)
		} else {
			end := min(wordIdx+segWordCount, len(words))
			segWords = words[wordIdx:end]
			wordIdx = end
		}

		start, end := original.Start, original.End
		if len(segWords) > 0 {
			start = segWords[0].Start
			end = segWords[len(segWords)-1].End
		}

		utterances = append(utterances, Utterance{
			Text:    text,
			Start:   start,
			End:     end,
			Speaker: original.Speaker,
			Words:   segWords,
		})
	}

	utterances[0].Start = original.Start
	utterances[len(utterances)-1].End = original.End
	return utterances
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
