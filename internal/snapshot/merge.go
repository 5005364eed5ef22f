package snapshot

import (
	"sort"
	"time"
)

// Merge reconciles a local and remote snapshot of the same project into a new
// document. It is a pure function: neither input is mutated and the result
// shares no slices with either.
//
// Resolution rules:
//   - name and status: local wins (the remote value fills a blank local one)
//   - created_at: earliest parseable timestamp
//   - sentences: union by id; shared ids keep local text and timing while the
//     learning progress fields reduce with OR / max / latest
//   - flat keywords: union by id, local preferred on collision
//   - speakers: union by id, manually-named record preferred; local wins when
//     both are manual
//   - progress block: the side with the later last_sync, after which the four
//     aggregates are recomputed from the merged sentence list
func Merge(local, remote Document, now time.Time) Document {
	merged := Document{
		ID:        firstNonEmpty(local.ID, remote.ID),
		Name:      firstNonEmpty(local.Name, remote.Name),
		Status:    firstNonEmpty(local.Status, remote.Status),
		CreatedAt: earliestTimestamp(local.CreatedAt, remote.CreatedAt),
		UpdatedAt: now.UTC().Format(time.RFC3339Nano),
		Speakers:  mergeSpeakers(local.Speakers, remote.Speakers),
		Sentences: mergeSentences(local.Sentences, remote.Sentences),
		Keywords:  mergeKeywords(local.Keywords, remote.Keywords),
		Progress:  selectProgress(local.Progress, remote.Progress),
	}

	merged.Progress.TotalSentences = len(merged.Sentences)
	merged.Progress.LearnedSentences = 0
	merged.Progress.DifficultSentences = 0
	for _, sentence := range merged.Sentences {
		if sentence.Learned {
			merged.Progress.LearnedSentences++
		}
		if sentence.IsDifficult {
			merged.Progress.DifficultSentences++
		}
	}
	merged.Progress.LastSync = now.UTC().Format(time.RFC3339Nano)

	return merged
}

func mergeSentences(local, remote []SentenceRecord) []SentenceRecord {
	remoteByID := make(map[string]SentenceRecord, len(remote))
	for _, sentence := range remote {
		remoteByID[sentence.ID] = sentence
	}
	seen := make(map[string]struct{}, len(local))

	merged := make([]SentenceRecord, 0, len(local)+len(remote))
	for _, localSentence := range local {
		seen[localSentence.ID] = struct{}{}
		remoteSentence, shared := remoteByID[localSentence.ID]
		if !shared {
			merged = append(merged, copySentence(localSentence))
			continue
		}
		merged = append(merged, reduceSentence(localSentence, remoteSentence))
	}
	for _, remoteSentence := range remote {
		if _, ok := seen[remoteSentence.ID]; ok {
			continue
		}
		merged = append(merged, copySentence(remoteSentence))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Index < merged[j].Index
	})
	return merged
}

// reduceSentence keeps the local sentence's content fields and reduces the
// learning progress pairwise. The reducers (OR, max, later timestamp) are
// symmetric, so merge order only influences the content fields.
func reduceSentence(local, remote SentenceRecord) SentenceRecord {
	out := copySentence(local)
	out.Learned = local.Learned || remote.Learned
	out.LearnCount = maxInt(local.LearnCount, remote.LearnCount)
	out.IsDifficult = local.IsDifficult || remote.IsDifficult
	out.ReviewCount = maxInt(local.ReviewCount, remote.ReviewCount)
	out.LastReviewed = latestTimestamp(local.LastReviewed, remote.LastReviewed)
	return out
}

func mergeKeywords(local, remote []KeywordRecord) []KeywordRecord {
	merged := make([]KeywordRecord, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(local))
	for _, keyword := range local {
		seen[keyword.ID] = struct{}{}
		merged = append(merged, keyword)
	}
	for _, keyword := range remote {
		if _, ok := seen[keyword.ID]; ok {
			continue
		}
		merged = append(merged, keyword)
	}
	return merged
}

func mergeSpeakers(local, remote []SpeakerRecord) []SpeakerRecord {
	merged := make([]SpeakerRecord, 0, len(local)+len(remote))
	index := make(map[string]int, len(local))
	for _, speaker := range local {
		index[speaker.ID] = len(merged)
		merged = append(merged, speaker)
	}
	for _, remoteSpeaker := range remote {
		at, shared := index[remoteSpeaker.ID]
		if !shared {
			merged = append(merged, remoteSpeaker)
			continue
		}
		if remoteSpeaker.IsManual && !merged[at].IsManual {
			merged[at] = remoteSpeaker
		}
	}
	return merged
}

// selectProgress picks the block with the later last_sync; a missing or
// unparsable last_sync loses. The caller recomputes the aggregates afterwards.
func selectProgress(local, remote ProgressBlock) ProgressBlock {
	localSync, localOK := parseTimestamp(local.LastSync)
	remoteSync, remoteOK := parseTimestamp(remote.LastSync)
	switch {
	case localOK && remoteOK:
		if remoteSync.After(localSync) {
			return remote
		}
		return local
	case remoteOK:
		return remote
	default:
		return local
	}
}

func copySentence(sentence SentenceRecord) SentenceRecord {
	out := sentence
	out.Keywords = make([]KeywordRef, len(sentence.Keywords))
	copy(out.Keywords, sentence.Keywords)
	return out
}

func earliestTimestamp(a, b string) string {
	timeA, okA := parseTimestamp(a)
	timeB, okB := parseTimestamp(b)
	switch {
	case okA && okB:
		if timeA.After(timeB) {
			return b
		}
		return a
	case okA:
		return a
	case okB:
		return b
	default:
		return firstNonEmpty(a, b)
	}
}

// latestTimestamp picks the later of two RFC 3339 timestamps. A side that
// fails to parse loses to one that parses; when neither parses, the first
// non-empty value wins, so a malformed local stamp is kept over a malformed
// remote one.
func latestTimestamp(a, b string) string {
	timeA, okA := parseTimestamp(a)
	timeB, okB := parseTimestamp(b)
	switch {
	case okA && okB:
		if timeB.After(timeA) {
			return b
		}
		return a
	case okA:
		return a
	case okB:
		return b
	default:
		return firstNonEmpty(a, b)
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
