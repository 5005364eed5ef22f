package remotestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dutchlearn/internal/services"
	"dutchlearn/internal/snapshot"
)

const defaultTimeoutSeconds = 60

// Config captures the settings required to reach a remote snapshot store.
type Config struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// Client is an HTTP implementation of Store.
//
// The remote layout is one object pair per project:
//
//	GET  /v1/projects                      -> {"projects": ["<id>", ...]}
//	GET  /v1/projects/<id>/snapshot.json   -> snapshot document
//	PUT  /v1/projects/<id>/snapshot.json
//	GET  /v1/projects/<id>/audio.mp3       -> mp3 bytes
//	PUT  /v1/projects/<id>/audio.mp3
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Tests use this to
// point the client at stub servers.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient builds a remote store client from configuration.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote store URL is required")
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}
	client := &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// List returns the project ids present on the remote.
func (c *Client) List(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/projects", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Projects []string `json:"projects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode project listing: %w", err)
	}
	return payload.Projects, nil
}

// GetDocument fetches the snapshot document for a project.
func (c *Client) GetDocument(ctx context.Context, projectID string) (snapshot.Document, error) {
	resp, err := c.do(ctx, http.MethodGet, c.documentPath(projectID), "", nil)
	if err != nil {
		return snapshot.Document{}, err
	}
	defer resp.Body.Close()

	var doc snapshot.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return snapshot.Document{}, fmt.Errorf("decode snapshot for %s: %w", projectID, err)
	}
	return doc, nil
}

// PutDocument creates or replaces the snapshot document for a project.
func (c *Client) PutDocument(ctx context.Context, projectID string, doc snapshot.Document) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot for %s: %w", projectID, err)
	}
	resp, err := c.do(ctx, http.MethodPut, c.documentPath(projectID), "application/json", bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// GetBlob streams the audio blob for a project.
func (c *Client) GetBlob(ctx context.Context, projectID string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, c.blobPath(projectID), "", nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// PutBlob creates or replaces the audio blob for a project.
func (c *Client) PutBlob(ctx context.Context, projectID string, body io.Reader) error {
	resp, err := c.do(ctx, http.MethodPut, c.blobPath(projectID), "application/octet-stream", body)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) documentPath(projectID string) string {
	return "/v1/projects/" + projectID + "/snapshot.json"
}

func (c *Client) blobPath(projectID string) string {
	return "/v1/projects/" + projectID + "/audio.mp3"
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w", method, path, services.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}
