package assemblyai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.mp3")
	if err := os.WriteFile(path, []byte("fake-mp3-bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestTranscribeFullFlow(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "key" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/upload":
			_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/upload/1"})
		case r.Method == http.MethodPost && r.URL.Path == "/v2/transcript":
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode transcript request: %v", err)
			}
			if payload["language_code"] != "nl" || payload["speaker_labels"] != true {
				t.Fatalf("unexpected transcript request: %v", payload)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr-1", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/v2/transcript/tr-1":
			if polls.Add(1) == 1 {
				_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr-1", "status": "processing"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":     "tr-1",
				"status": "completed",
				"words": []map[string]any{
					{"text": "Hallo", "start": 0, "end": 400},
					{"text": "daar.", "start": 450, "end": 900},
					{"text": "Goedemorgen.", "start": 1000, "end": 1800},
				},
				"utterances": []map[string]any{
					{"text": "Hallo daar.", "start": 0, "end": 900, "speaker": "A"},
					{"text": "Goedemorgen.", "start": 1000, "end": 1800, "speaker": "B"},
				},
			})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL},
		WithPollInterval(time.Millisecond))
	result, err := client.Transcribe(context.Background(), writeAudioFixture(t), "nl")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}

	if len(result.Speakers) != 2 || result.Speakers[0].Label != "A" || result.Speakers[1].Label != "B" {
		t.Fatalf("unexpected speakers: %#v", result.Speakers)
	}
	if len(result.Speakers[0].Evidence) != 1 || result.Speakers[0].Evidence[0] != "Hallo daar." {
		t.Fatalf("unexpected evidence: %#v", result.Speakers[0].Evidence)
	}
	if len(result.Utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(result.Utterances))
	}
	first := result.Utterances[0]
	if len(first.Words) != 2 || first.Words[0].Text != "Hallo" {
		t.Fatalf("expected words matched by overlap: %#v", first.Words)
	}
	if first.Start != 0 || first.End != 0.9 {
		t.Fatalf("expected millisecond conversion: %#v", first)
	}
}

func TestTranscribeJobError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v2/upload":
			_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/upload/1"})
		case r.Method == http.MethodPost && r.URL.Path == "/v2/transcript":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "tr-2", "status": "queued"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id": "tr-2", "status": "error", "error": "unsupported audio",
			})
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL},
		WithPollInterval(time.Millisecond))
	if _, err := client.Transcribe(context.Background(), writeAudioFixture(t), "nl"); err == nil {
		t.Fatal("expected error for failed job")
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	client := NewClient(Config{APIKey: "key"})
	if _, err := client.Transcribe(context.Background(), "/nonexistent/audio.mp3", "nl"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseTranscriptEmptySpeakerDefaultsToA(t *testing.T) {
	result := parseTranscript(&transcriptResponse{
		Utterances: []utteranceEntry{{Text: "Hoi.", Start: 0, End: 500}},
	})
	if len(result.Speakers) != 1 || result.Speakers[0].Label != "A" {
		t.Fatalf("expected default label A, got %#v", result.Speakers)
	}
}
