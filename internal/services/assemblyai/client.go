// Package assemblyai wraps the AssemblyAI REST API: audio upload, transcript
// creation with speaker diarization, and completion polling.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://api.assemblyai.com"
	defaultHTTPTimeout  = 120 * time.Second
	defaultPollInterval = 3 * time.Second

	// Evidence utterances retained per speaker for name inference.
	evidenceUtterances = 5

	// Tolerance in seconds when matching words to utterances by time overlap.
	wordMatchTolerance = 0.01
)

// Config captures the runtime settings for the transcription service.
type Config struct {
	APIKey           string
	BaseURL          string
	SpeakersExpected int
	PollInterval     int
	TimeoutSeconds   int
}

// Client talks to the AssemblyAI v2 API.
type Client struct {
	cfg          Config
	httpClient   *http.Client
	pollInterval time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPollInterval overrides the transcript polling interval.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// NewClient constructs a transcription client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	pollInterval := defaultPollInterval
	if cfg.PollInterval > 0 {
		pollInterval = time.Duration(cfg.PollInterval) * time.Second
	}
	client := &Client{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: timeout},
		pollInterval: pollInterval,
	}
	for _, opt := range opts {
		opt(client)
	}
	if strings.TrimSpace(client.cfg.BaseURL) == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// Transcribe uploads the audio file, starts a diarized transcription job in
// the given language, and polls until the job completes or the context ends.
func (c *Client) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("transcribe: api key required")
	}
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("transcribe: audio file: %w", err)
	}

	uploadURL, err := c.upload(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	transcriptID, err := c.createTranscript(ctx, uploadURL, language)
	if err != nil {
		return nil, err
	}
	transcript, err := c.pollTranscript(ctx, transcriptID)
	if err != nil {
		return nil, err
	}
	return parseTranscript(transcript), nil
}

func (c *Client) upload(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: open audio: %w", err)
	}
	defer file.Close()

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v2", "upload")
	if err != nil {
		return "", fmt.Errorf("transcribe: build upload url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, file)
	if err != nil {
		return "", fmt.Errorf("transcribe: new upload request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var response struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(req, &response); err != nil {
		return "", fmt.Errorf("transcribe: upload: %w", err)
	}
	if response.UploadURL == "" {
		return "", errors.New("transcribe: upload returned no url")
	}
	return response.UploadURL, nil
}

func (c *Client) createTranscript(ctx context.Context, audioURL, language string) (string, error) {
	payload := map[string]any{
		"audio_url":      audioURL,
		"language_code":  language,
		"speaker_labels": true,
	}
	if c.cfg.SpeakersExpected > 0 {
		payload["speakers_expected"] = c.cfg.SpeakersExpected
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("transcribe: encode request: %w", err)
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v2", "transcript")
	if err != nil {
		return "", fmt.Errorf("transcribe: build transcript url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("transcribe: new transcript request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var response transcriptResponse
	if err := c.do(req, &response); err != nil {
		return "", fmt.Errorf("transcribe: create transcript: %w", err)
	}
	if response.ID == "" {
		return "", errors.New("transcribe: transcript returned no id")
	}
	return response.ID, nil
}

func (c *Client) pollTranscript(ctx context.Context, id string) (*transcriptResponse, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v2", "transcript", id)
	if err != nil {
		return nil, fmt.Errorf("transcribe: build poll url: %w", err)
	}

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("transcribe: new poll request: %w", err)
		}
		req.Header.Set("Authorization", c.cfg.APIKey)

		var response transcriptResponse
		if err := c.do(req, &response); err != nil {
			return nil, fmt.Errorf("transcribe: poll: %w", err)
		}

		switch response.Status {
		case "completed":
			return &response, nil
		case "error":
			return nil, fmt.Errorf("transcribe: job failed: %s", response.Error)
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) do(req *http.Request, target any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type transcriptResponse struct {
	ID         string           `json:"id"`
	Status     string           `json:"status"`
	Error      string           `json:"error"`
	Words      []wordEntry      `json:"words"`
	Utterances []utteranceEntry `json:"utterances"`
}

type wordEntry struct {
	Text  string `json:"text"`
	Start int64  `json:"start"` // milliseconds
	End   int64  `json:"end"`
}

type utteranceEntry struct {
	Text    string `json:"text"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	Speaker string `json:"speaker"`
}
