package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	inner := errors.New("socket closed")
	err := Wrap(ErrTranscription, "transcribing", "poll", "service unavailable", inner)

	if !errors.Is(err, ErrTranscription) {
		t.Fatalf("expected transcription marker, got %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected inner error preserved, got %v", err)
	}
	if !strings.Contains(err.Error(), "transcribing: poll: service unavailable") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient fallback, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) {
		t.Fatal("nil error is not retryable")
	}
	if Retryable(Wrap(ErrValidation, "explain", "batch", "bad input", nil)) {
		t.Fatal("validation errors must not consume retry budget")
	}
	if !Retryable(Wrap(ErrTransient, "explain", "batch", "http 503", nil)) {
		t.Fatal("transient errors should be retryable")
	}
}
