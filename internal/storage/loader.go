package storage

import (
	"fmt"

	"github.com/serroba/line-docs/internal/document"
)

// Loader brings an older copy of a document up to date by replaying the
// changes logged since its version.
type Loader struct {
	store Store
}

// NewLoader creates a loader reading change logs from store.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// LoadResult contains the result of catching up a document.
type LoadResult struct {
	Document document.Document
	Replayed int // Number of changes applied to the base copy
}

// Load replays every logged change after base.Version onto base.
// The returned document is only as current as the log; callers that need
// the stored version must compare it themselves.
func (l *Loader) Load(base document.Document) (LoadResult, error) {
	changes, err := l.store.Changes(base.ID, base.Version)
	if err != nil {
		return LoadResult{}, err
	}

	doc := base.Clone()

	for _, c := range changes {
		doc, err = doc.Apply(c)
		if err != nil {
			return LoadResult{}, fmt.Errorf("replay document %d: %w", base.ID, err)
		}
	}

	return LoadResult{Document: doc, Replayed: len(changes)}, nil
}
