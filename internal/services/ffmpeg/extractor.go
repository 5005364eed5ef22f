// Package ffmpeg extracts a normalized mono MP3 audio track from uploaded
// video or audio files by shelling out to the ffmpeg binary.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Settings chosen for speech transcription: 16 kHz mono at 128 kbps.
const (
	audioCodec    = "libmp3lame"
	audioBitrate  = "128k"
	sampleRate    = "16000"
	audioChannels = "1"

	defaultTimeout = 10 * time.Minute
)

// runner executes the assembled command. Tests substitute it to avoid
// requiring ffmpeg on the machine.
type runner func(ctx context.Context, binary string, args []string) error

// Extractor converts uploads into normalized audio artifacts.
type Extractor struct {
	binary  string
	timeout time.Duration
	run     runner
}

// Option customizes the extractor.
type Option func(*Extractor)

// WithTimeout overrides the extraction timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Extractor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithRunner overrides command execution (useful for tests).
func WithRunner(run runner) Option {
	return func(e *Extractor) {
		if run != nil {
			e.run = run
		}
	}
}

// NewExtractor constructs an extractor using the given ffmpeg binary name.
func NewExtractor(binary string, opts ...Option) *Extractor {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	extractor := &Extractor{
		binary:  binary,
		timeout: defaultTimeout,
		run:     runCommand,
	}
	for _, opt := range opts {
		opt(extractor)
	}
	return extractor
}

// Verify checks that the ffmpeg binary is present and executable.
func (e *Extractor) Verify(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.run(checkCtx, e.binary, []string{"-version"}); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}
	return nil
}

// Extract converts the input media file into a mono MP3 at outputPath. The
// output directory is created when missing.
func (e *Extractor) Extract(ctx context.Context, inputPath, outputPath string) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	args := []string{
		"-i", inputPath,
		"-vn",
		"-acodec", audioCodec,
		"-ab", audioBitrate,
		"-ar", sampleRate,
		"-ac", audioChannels,
		"-y",
		outputPath,
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.run(runCtx, e.binary, args); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("extraction timed out after %s", e.timeout)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("ffmpeg completed but output missing: %w", err)
	}
	return nil
}

func runCommand(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
