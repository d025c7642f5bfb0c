package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaDirName = ".meta"

// LocalStore implements UploadStore on the local filesystem. Each upload is
// written next to a JSON metadata sidecar under basePath/.meta.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a local upload store rooted at basePath.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(basePath, metaDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Save stores an upload and returns its metadata.
func (s *LocalStore) Save(ctx context.Context, filename string, data []byte) (*UploadInfo, error) {
	info := &UploadInfo{
		ID:        uuid.New(),
		Name:      filename,
		Size:      int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}

	if err := os.WriteFile(s.dataPath(info.ID, filename), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := s.writeMeta(info); err != nil {
		os.Remove(s.dataPath(info.ID, filename))
		return nil, err
	}
	return info, nil
}

// Load retrieves an upload's bytes and metadata by id.
func (s *LocalStore) Load(ctx context.Context, id uuid.UUID) ([]byte, *UploadInfo, error) {
	info, err := s.readMeta(id)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(s.dataPath(id, info.Name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, info, nil
}

// Delete removes an upload and its metadata.
func (s *LocalStore) Delete(ctx context.Context, id uuid.UUID) error {
	info, err := s.readMeta(id)
	if err != nil {
		return err
	}
	if err := os.Remove(s.dataPath(id, info.Name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	os.Remove(s.metaPath(id))
	return nil
}

// PruneOlderThan removes uploads older than maxAge.
func (s *LocalStore) PruneOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, metaDirName))
	if err != nil {
		return 0, fmt.Errorf("failed to list uploads: %w", err)
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	pruned := 0
	for _, entry := range entries {
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := s.readMeta(id)
		if err != nil {
			continue
		}
		if info.CreatedAt.Before(cutoff) {
			if err := s.Delete(ctx, id); err == nil {
				pruned++
			}
		}
	}
	return pruned, nil
}

func (s *LocalStore) dataPath(id uuid.UUID, filename string) string {
	safe := sanitizeFilename(filename)
	return filepath.Join(s.basePath, id.String()[:8]+"_"+safe)
}

func (s *LocalStore) metaPath(id uuid.UUID) string {
	return filepath.Join(s.basePath, metaDirName, id.String()+".json")
}

func (s *LocalStore) writeMeta(info *UploadInfo) error {
	blob, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode upload metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(info.ID), blob, 0o644); err != nil {
		return fmt.Errorf("failed to write upload metadata: %w", err)
	}
	return nil
}

func (s *LocalStore) readMeta(id uuid.UUID) (*UploadInfo, error) {
	blob, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read upload metadata: %w", err)
	}
	var info UploadInfo
	if err := json.Unmarshal(blob, &info); err != nil {
		return nil, fmt.Errorf("failed to decode upload metadata: %w", err)
	}
	return &info, nil
}

// sanitizeFilename strips path separators and control characters so the
// stored name is always a plain file under basePath.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
