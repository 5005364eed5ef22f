package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dutchlearn/internal/testsupport"
)

func TestExtractBuildsExpectedArgs(t *testing.T) {
	base := t.TempDir()
	input := filepath.Join(base, "video.mp4")
	output := filepath.Join(base, "audio", "out.mp3")
	testsupport.WriteFile(t, input, 128)

	var gotBinary string
	var gotArgs []string
	extractor := NewExtractor("ffmpeg", WithRunner(func(ctx context.Context, binary string, args []string) error {
		gotBinary = binary
		gotArgs = args
		testsupport.WriteFile(t, output, 64)
		return nil
	}))

	if err := extractor.Extract(context.Background(), input, output); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if gotBinary != "ffmpeg" {
		t.Fatalf("unexpected binary %q", gotBinary)
	}
	want := []string{"-i", input, "-vn", "-acodec", "libmp3lame", "-ab", "128k", "-ar", "16000", "-ac", "1", "-y", output}
	if len(gotArgs) != len(want) {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Fatalf("arg %d: expected %q, got %q", i, want[i], gotArgs[i])
		}
	}
}

func TestExtractMissingInput(t *testing.T) {
	extractor := NewExtractor("ffmpeg", WithRunner(func(context.Context, string, []string) error {
		t.Fatal("runner should not be invoked for missing input")
		return nil
	}))
	err := extractor.Extract(context.Background(), "/nonexistent/in.mp4", filepath.Join(t.TempDir(), "out.mp3"))
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestExtractReportsMissingOutput(t *testing.T) {
	base := t.TempDir()
	input := filepath.Join(base, "video.mp4")
	testsupport.WriteFile(t, input, 128)

	extractor := NewExtractor("ffmpeg", WithRunner(func(context.Context, string, []string) error {
		return nil // runner "succeeds" but writes nothing
	}))
	err := extractor.Extract(context.Background(), input, filepath.Join(base, "out.mp3"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing-output error, got %v", err)
	}
}

func TestExtractPropagatesRunnerError(t *testing.T) {
	base := t.TempDir()
	input := filepath.Join(base, "video.mp4")
	testsupport.WriteFile(t, input, 128)

	wantErr := errors.New("codec failure")
	extractor := NewExtractor("ffmpeg", WithRunner(func(context.Context, string, []string) error {
		return wantErr
	}))
	err := extractor.Extract(context.Background(), input, filepath.Join(base, "out.mp3"))
	if err == nil || !errors.Is(err, wantErr) {
		t.Fatalf("expected runner error, got %v", err)
	}
}
