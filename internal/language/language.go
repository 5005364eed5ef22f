package language

import "strings"

type entry struct {
	code2   string // ISO 639-1 (2-letter)
	code3   string // ISO 639-2 primary (3-letter)
	alt3    string // ISO 639-2 alternate (e.g. "dut" vs "nld")
	display string // Human-readable name
	word    string // Full word form (e.g. "dutch")
}

// Languages AssemblyAI supports for transcription with speaker diarization.
var languages = []entry{
	{"nl", "nld", "dut", "Dutch", "dutch"},
	{"en", "eng", "", "English", "english"},
	{"de", "deu", "ger", "German", "german"},
	{"fr", "fra", "fre", "French", "french"},
	{"es", "spa", "", "Spanish", "spanish"},
	{"it", "ita", "", "Italian", "italian"},
	{"pt", "por", "", "Portuguese", "portuguese"},
	{"pl", "pol", "", "Polish", "polish"},
	{"sv", "swe", "", "Swedish", "swedish"},
	{"da", "dan", "", "Danish", "danish"},
	{"no", "nor", "", "Norwegian", "norwegian"},
	{"fi", "fin", "", "Finnish", "finnish"},
}

var index map[string]*entry

func init() {
	index = make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		index[e.code2] = e
		index[e.code3] = e
		if e.alt3 != "" {
			index[e.alt3] = e
		}
		index[e.word] = e
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	return index[code]
}

// Normalize converts any recognized language code or word to ISO 639-1.
// Unrecognized 2-letter codes pass through so uncommon languages are not
// rejected outright; anything else returns empty.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// Supported reports whether the code maps to a language in the table.
func Supported(code string) bool {
	return lookup(code) != nil
}

// DisplayName returns a human-readable language name for any recognized
// code, or the uppercased code when unrecognized.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
