package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps each collection as a pretty-printed json file under a
// data directory. It is the default durable backend, standing in for the
// browser profile the original board wrote to.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

func NewFileStore(dir string) (*FileStore, error) {
	err := os.MkdirAll(dir, 0o755)

	if err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))

	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoDocument
	}

	if err != nil {
		return nil, err
	}

	return json.RawMessage(data), nil
}

func (s *FileStore) Put(ctx context.Context, key string, doc json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// write to a temp file first so a crash mid-write never leaves a
	// truncated collection behind

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")

	if err != nil {
		return err
	}

	_, err = tmp.Write(doc)

	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	err = tmp.Close()

	if err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path(key))
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))

	if errors.Is(err, fs.ErrNotExist) {
		return ErrNoDocument
	}

	return err
}

func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)

	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))

	for _, e := range entries {
		name := e.Name()

		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}

	return keys, nil
}

func (s *FileStore) path(key string) string {
	// collection keys are fixed identifiers, but base-name them anyway so
	// a bad key cannot escape the data dir
	return filepath.Join(s.dir, filepath.Base(key)+".json")
}
