// Package storage keeps uploaded statement files on disk between the
// analyze, preview and commit steps of an import.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an upload id is unknown or already pruned.
var ErrNotFound = errors.New("upload not found")

// UploadInfo contains metadata about a stored upload.
type UploadInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadStore defines the operations for the statement upload staging area.
type UploadStore interface {
	// Save stores an upload and returns its metadata.
	Save(ctx context.Context, filename string, data []byte) (*UploadInfo, error)

	// Load retrieves an upload's bytes and metadata by id.
	Load(ctx context.Context, id uuid.UUID) ([]byte, *UploadInfo, error)

	// Delete removes an upload.
	Delete(ctx context.Context, id uuid.UUID) error

	// PruneOlderThan removes uploads older than maxAge, returning how many
	// were removed. Stale uploads are expected; an abandoned import never
	// deletes its file.
	PruneOlderThan(ctx context.Context, maxAge time.Duration) (int, error)
}
