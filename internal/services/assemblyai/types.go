package assemblyai

import "dutchlearn/internal/splitter"

// SpeakerInfo describes one diarized speaker discovered in the audio.
// Evidence holds the speaker's first few utterance texts for downstream name
// inference.
type SpeakerInfo struct {
	Label    string
	Evidence []string
}

// Result is the parsed outcome of one transcription job. Utterances carry
// word-level timestamps and are ready to feed into the splitter.
type Result struct {
	Speakers   []SpeakerInfo
	Utterances []splitter.Utterance
}
