package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocalStore_SaveLoadDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	data := []byte("Date,Amount\n2023-10-01,-4.50\n")

	info, err := s.Save(ctx, "statement.csv", data)
	require.NoError(t, err)
	assert.Equal(t, "statement.csv", info.Name)
	assert.Equal(t, int64(len(data)), info.Size)

	got, gotInfo, err := s.Load(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, info.ID, gotInfo.ID)

	require.NoError(t, s.Delete(ctx, info.ID))
	_, _, err = s.Load(ctx, info.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_LoadUnknownID(t *testing.T) {
	s := newStore(t)
	_, _, err := s.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_SanitizesFilename(t *testing.T) {
	s := newStore(t)
	info, err := s.Save(context.Background(), "../../etc/pass wd.csv", []byte("x"))
	require.NoError(t, err)

	// The stored file lives directly under the base path.
	entries, err := os.ReadDir(s.basePath)
	require.NoError(t, err)
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "pass_wd.csv")

	_, _, err = s.Load(context.Background(), info.ID)
	assert.NoError(t, err)
}

func TestLocalStore_PruneOlderThan(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	old, err := s.Save(ctx, "old.csv", []byte("a"))
	require.NoError(t, err)
	fresh, err := s.Save(ctx, "fresh.csv", []byte("b"))
	require.NoError(t, err)

	// Backdate the first upload's metadata.
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	blob, err := json.Marshal(old)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.basePath, metaDirName, old.ID.String()+".json"), blob, 0o644))

	pruned, err := s.PruneOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	_, _, err = s.Load(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.Load(ctx, fresh.ID)
	assert.NoError(t, err)
}
