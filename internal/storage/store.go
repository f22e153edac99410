package storage

import (
	"errors"

	"github.com/serroba/line-docs/internal/document"
)

// Common errors.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrIDMismatch       = errors.New("document id does not match slot")
)

// Store defines the interface for holding documents by id.
// Implementations can use in-memory storage, databases, or other backends.
type Store interface {
	// Create stores a new document and assigns it the next sequential id.
	// The ID of initial is ignored.
	Create(initial document.Document) (document.Document, error)

	// Fetch retrieves a document.
	// Returns ErrDocumentNotFound if the id is unknown or deleted.
	Fetch(id int) (document.Document, error)

	// Delete removes a document and its change log.
	// Returns ErrDocumentNotFound if the id is unknown or already deleted.
	Delete(id int) error

	// Replace overwrites the document stored at id.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	Replace(id int, doc document.Document) error

	// AppendChange adds a change to the document's change log.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	AppendChange(id int, change document.Change) error

	// Changes retrieves all logged changes after the given version, oldest first.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	Changes(id int, sinceVersion int) ([]document.Change, error)

	// PruneChanges drops all but the newest keep changes.
	// Returns ErrDocumentNotFound if the document doesn't exist.
	PruneChanges(id int, keep int) error

	// Len returns the number of live documents.
	Len() int
}
