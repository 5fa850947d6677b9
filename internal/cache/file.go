// internal/cache/file.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "trendscout/internal/common/errors"
)

// fileStore is the default persistent tier: one JSON document per key hash.
// The directory may grow unboundedly unless externally pruned.
type fileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewCacheUnavailableError("file", err)
	}
	return &fileStore{dir: dir}, nil
}

func (s *fileStore) path(hash string) string {
	return filepath.Join(s.dir, hash+".json")
}

func (s *fileStore) Get(_ context.Context, hash string) (*Entry, error) {
	data, err := os.ReadFile(s.path(hash))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewCacheUnavailableError("file", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt document is treated as a miss and removed.
		_ = os.Remove(s.path(hash))
		return nil, nil
	}
	return &entry, nil
}

func (s *fileStore) Put(_ context.Context, hash string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	tmp := s.path(hash) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.NewCacheUnavailableError("file", err)
	}
	if err := os.Rename(tmp, s.path(hash)); err != nil {
		return apperrors.NewCacheUnavailableError("file", err)
	}
	return nil
}

func (s *fileStore) Delete(_ context.Context, hash string) error {
	err := os.Remove(s.path(hash))
	if err != nil && !os.IsNotExist(err) {
		return apperrors.NewCacheUnavailableError("file", err)
	}
	return nil
}
