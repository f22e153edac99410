package storage

import (
	"fmt"
	"slices"
	"sync"

	"github.com/serroba/line-docs/internal/document"
)

// record holds everything stored for a single document.
type record struct {
	doc     document.Document
	changes []document.Change
}

// MemoryStore is an in-memory implementation of the Store interface.
// Documents live in a slice indexed by id-1; deleted slots stay nil so ids
// are never reused.
type MemoryStore struct {
	mu    sync.RWMutex
	slots []*record
	live  int
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Create stores a copy of initial under the next sequential id.
func (m *MemoryStore) Create(initial document.Document) (document.Document, error) {
	if initial.Version < 0 {
		return document.Document{}, fmt.Errorf("%w: initial version %d", document.ErrInvalidVersion, initial.Version)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc := initial.Clone()
	doc.ID = len(m.slots) + 1

	m.slots = append(m.slots, &record{doc: doc})
	m.live++

	return doc.Clone(), nil
}

// Fetch retrieves a copy of the document stored at id.
func (m *MemoryStore) Fetch(id int) (document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := m.lookup(id)
	if err != nil {
		return document.Document{}, err
	}

	return rec.doc.Clone(), nil
}

// Delete clears the slot for id.
func (m *MemoryStore) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup(id); err != nil {
		return err
	}

	m.slots[id-1] = nil
	m.live--

	return nil
}

// Replace overwrites the document stored at id with a copy of doc.
func (m *MemoryStore) Replace(id int, doc document.Document) error {
	if doc.ID != id {
		return fmt.Errorf("%w: slot %d, document %d", ErrIDMismatch, id, doc.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(id)
	if err != nil {
		return err
	}

	rec.doc = doc.Clone()

	return nil
}

// AppendChange adds a change to the document's change log.
func (m *MemoryStore) AppendChange(id int, change document.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(id)
	if err != nil {
		return err
	}

	rec.changes = append(rec.changes, change)

	return nil
}

// Changes retrieves all changes after the given version.
func (m *MemoryStore) Changes(id int, sinceVersion int) ([]document.Change, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	var result []document.Change

	for _, c := range rec.changes {
		if c.Version > sinceVersion {
			result = append(result, c)
		}
	}

	return result, nil
}

// PruneChanges keeps only the newest keep changes for id.
func (m *MemoryStore) PruneChanges(id int, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(id)
	if err != nil {
		return err
	}

	if keep < 0 {
		keep = 0
	}

	if len(rec.changes) > keep {
		rec.changes = slices.Clone(rec.changes[len(rec.changes)-keep:])
	}

	return nil
}

// Len returns the number of live documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.live
}

// lookup returns the live record for id. Callers must hold m.mu.
func (m *MemoryStore) lookup(id int) (*record, error) {
	if id < 1 || id > len(m.slots) || m.slots[id-1] == nil {
		return nil, fmt.Errorf("%w: %d", ErrDocumentNotFound, id)
	}

	return m.slots[id-1], nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
