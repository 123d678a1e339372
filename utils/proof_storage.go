package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ProofStorage persists proof-of-delivery files and returns where the file
// can be found (a path, URL or object URI).
type ProofStorage interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
}

// ProofKey builds a unique object key for an upload on a trip.
func ProofKey(tripID uint, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return fmt.Sprintf("proofs/%d/%02d/trip-%d/%s%s", now.Year(), now.Month(), tripID, GenerateUUID(), ext)
}

// LocalProofStorage writes files below a directory on disk.
type LocalProofStorage struct {
	dir string
}

func NewLocalProofStorage(dir string) *LocalProofStorage {
	return &LocalProofStorage{dir: dir}
}

func (s *LocalProofStorage) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, filepath.FromSlash(filepath.Clean("/" + key)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
