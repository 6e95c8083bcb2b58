package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// FsStore keeps blobs as content-addressed files under a base directory,
// sharded by the first two hash characters to keep directories small.
type FsStore struct {
	baseDir string
}

func NewFsStore(baseDir string) (*FsStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &FsStore{baseDir: baseDir}, nil
}

func (s *FsStore) Put(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	ref := hex.EncodeToString(sum[:])

	path := s.pathFor(ref)
	if _, err := os.Stat(path); err == nil {
		// Same bytes already stored.
		return ref, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob shard: %w", err)
	}

	// Write to a temp file first so a crash never leaves a truncated blob
	// under its final name.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return ref, nil
}

func (s *FsStore) Get(ref string) ([]byte, error) {
	data, err := os.ReadFile(s.pathFor(ref))
	if err != nil {
		return nil, fmt.Errorf("blob %s not readable: %w", ref, err)
	}
	return data, nil
}

func (s *FsStore) Delete(ref string) error {
	err := os.Remove(s.pathFor(ref))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FsStore) pathFor(ref string) string {
	shard := "00"
	if len(ref) >= 2 {
		shard = ref[:2]
	}
	return filepath.Join(s.baseDir, shard, ref)
}
