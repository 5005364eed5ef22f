// Package remotestore defines the remote snapshot store contract and an HTTP
// implementation. The remote is a flat object store keyed by project id: one
// snapshot document plus an optional audio blob per project.
package remotestore

import (
	"context"
	"io"

	"dutchlearn/internal/snapshot"
)

// Store is the remote side of the sync engine.
type Store interface {
	// List returns the project ids present on the remote.
	List(ctx context.Context) ([]string, error)
	// GetDocument fetches the snapshot document for a project.
	GetDocument(ctx context.Context, projectID string) (snapshot.Document, error)
	// PutDocument creates or replaces the snapshot document for a project.
	PutDocument(ctx context.Context, projectID string, doc snapshot.Document) error
	// GetBlob streams the audio blob for a project. The caller closes the
	// returned reader.
	GetBlob(ctx context.Context, projectID string) (io.ReadCloser, error)
	// PutBlob creates or replaces the audio blob for a project.
	PutBlob(ctx context.Context, projectID string, body io.Reader) error
}
