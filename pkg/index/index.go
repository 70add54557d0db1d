package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const indexFile = "events.json"

// Entry is the last calendar event recorded for a task.
type Entry struct {
	EventID string `json:"event_id"`
	Summary string `json:"summary"`
}

// EventIndex maps task ids to their last recorded calendar event.
type EventIndex struct {
	Mappings map[string]Entry `json:"mappings"`
	Path     string           `json:"-"`
	mu       sync.RWMutex
	dirty    bool
}

// DefaultPath is events.json inside the grind config directory.
func DefaultPath(configDir string) string {
	return filepath.Join(configDir, indexFile)
}

func NewEventIndex(path string) (*EventIndex, error) {
	idx := &EventIndex{
		Mappings: make(map[string]Entry),
		Path:     path,
	}

	if _, err := os.Stat(path); err == nil {
		if err := idx.Load(); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

func (idx *EventIndex) Load() error {
	f, err := os.Open(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := json.NewDecoder(f).Decode(&idx.Mappings); err != nil {
		return err
	}
	if idx.Mappings == nil {
		idx.Mappings = make(map[string]Entry)
	}
	return nil
}

// Save writes the index if it changed since the last Save.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	dir := filepath.Dir(idx.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.Create(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(idx.Mappings); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *EventIndex) Get(taskID string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.Mappings[taskID]
	return e, ok
}

func (idx *EventIndex) Set(taskID string, e Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[taskID] != e {
		idx.Mappings[taskID] = e
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[taskID]; exists {
		delete(idx.Mappings, taskID)
		idx.dirty = true
	}
}
