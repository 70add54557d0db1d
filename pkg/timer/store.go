package timer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists at most one Record.
type Store interface {
	// Load returns ErrNoTimer when nothing is being tracked.
	Load() (Record, error)
	// Save overwrites any existing record.
	Save(Record) error
	// Clear removes the record. Clearing an empty store is not an error.
	Clear() error
}

// FileStore keeps the record as a single line in a plain text file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load() (Record, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, ErrNoTimer
		}
		return Record{}, fmt.Errorf("failed to read timer file %s: %w", s.Path, err)
	}

	var r Record
	if err := r.UnmarshalText(b); err != nil {
		return Record{}, fmt.Errorf("timer file %s: %w", s.Path, err)
	}
	return r, nil
}

func (s *FileStore) Save(r Record) error {
	b, err := r.MarshalText()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create timer directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, b, 0644); err != nil {
		return fmt.Errorf("failed to write timer file %s: %w", s.Path, err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove timer file %s: %w", s.Path, err)
	}
	return nil
}

// MemoryStore keeps the record in memory. Used by tests and dry runs.
type MemoryStore struct {
	record *Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (Record, error) {
	if s.record == nil {
		return Record{}, ErrNoTimer
	}
	return *s.record, nil
}

func (s *MemoryStore) Save(r Record) error {
	if r.TaskID == "" {
		return fmt.Errorf("%w: empty task id", ErrMalformed)
	}
	s.record = &r
	return nil
}

func (s *MemoryStore) Clear() error {
	s.record = nil
	return nil
}
