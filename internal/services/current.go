package services

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/logger"
	"github.com/pkg/errors"
)

// Store persists the current-lottery pointer, one string. The zero value
// of the pointer is "nothing selected yet".
type Store interface {
	Load() (string, error)
	Save(id string) error
}

// FileStore keeps the pointer in a plain file.
type FileStore struct {
	Path string
}

// Load implements Store. A missing file is an empty pointer, not an error.
func (s FileStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "load current lottery")
	}
	return strings.TrimSpace(string(b)), nil
}

// Save implements Store.
func (s FileStore) Save(id string) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "save current lottery")
		}
	}
	return errors.Wrap(os.WriteFile(s.Path, []byte(id+"\n"), 0o600), "save current lottery")
}

// CurrentLottery is the client-local pointer to the lottery the single-
// lottery views track. It is ambient state, not ledger truth: the id it
// holds may no longer resolve, and readers surface that as "not found".
type CurrentLottery struct {
	mu    sync.RWMutex
	id    string
	store Store
}

// NewCurrentLottery loads the persisted pointer. A failed load starts
// empty; the pointer is non-authoritative, so losing it only costs a
// manual re-selection.
func NewCurrentLottery(store Store) *CurrentLottery {
	c := &CurrentLottery{store: store}
	id, err := store.Load()
	if err != nil {
		logger.Warningf("current lottery: %v", err)
		return c
	}
	c.id = id
	return c
}

// ID returns the selected lottery id, or "" when none is selected.
func (c *CurrentLottery) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Set overwrites the pointer and persists it.
func (c *CurrentLottery) Set(id string) error {
	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
	return c.store.Save(id)
}
