package collab

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/serroba/line-docs/internal/document"
	"github.com/serroba/line-docs/internal/storage"
	"github.com/serroba/line-docs/internal/watch"
)

const defaultHistorySize = 100

// Common errors.
var (
	// ErrHistoryUnavailable is returned when the retained change log no
	// longer reaches back to the requested version.
	ErrHistoryUnavailable = errors.New("version too old, history unavailable")
	// ErrNoHub is returned by Subscribe on a service built without a hub.
	ErrNoHub = errors.New("service has no hub configured")
)

// Service is the entry point for creating, reading, updating and deleting
// documents. Updates to one document are serialised; updates to different
// documents run concurrently.
type Service struct {
	locks *docLocks

	store       storage.Store
	loader      *storage.Loader
	hub         *watch.Hub
	log         *slog.Logger
	historySize int
}

// ServiceConfig holds configuration for creating a service.
type ServiceConfig struct {
	Store storage.Store
	// Hub receives an event for every accepted change. Optional.
	Hub *watch.Hub
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// HistorySize is the number of changes retained per document. Defaults to 100.
	HistorySize int
}

// NewService creates a new service.
func NewService(cfg ServiceConfig) *Service {
	historySize := cfg.HistorySize
	if historySize <= 0 {
		historySize = defaultHistorySize
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		locks:       newDocLocks(),
		store:       cfg.Store,
		loader:      storage.NewLoader(cfg.Store),
		hub:         cfg.Hub,
		log:         log,
		historySize: historySize,
	}
}

// Create stores a new document. The zero Document creates a blank document
// at version 0.
func (s *Service) Create(initial document.Document) (document.Document, error) {
	doc, err := s.store.Create(initial)
	if err != nil {
		return document.Document{}, err
	}

	s.log.Debug("document created", "doc_id", doc.ID, "version", doc.Version, "lines", doc.Len())

	return doc, nil
}

// Fetch returns the current state of a document.
func (s *Service) Fetch(id int) (document.Document, error) {
	return s.store.Fetch(id)
}

// Delete removes a document and closes its subscriptions.
func (s *Service) Delete(id int) error {
	_, unlock, err := s.lockExisting(id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.store.Delete(id); err != nil {
		return err
	}

	// Ids are never reused, so anyone still queued on this lock will only
	// find the document gone.
	s.locks.forget(id)

	if s.hub != nil {
		s.hub.Publish(watch.Event{DocID: id, Deleted: true})
		s.hub.CloseDocument(id)
	}

	s.log.Debug("document deleted", "doc_id", id)

	return nil
}

// Update reconciles u against the stored document u.ID and stores the
// result. A rejected update is not an error: the result carries the current
// document so the client can decide again.
func (s *Service) Update(u document.Update) (document.Result, error) {
	current, unlock, err := s.lockExisting(u.ID)
	if err != nil {
		return document.Result{}, err
	}
	defer unlock()

	result, err := document.Reconcile(current, u)
	if err != nil {
		s.log.Warn("malformed update",
			"doc_id", u.ID,
			"version", current.Version,
			"base_version", u.BaseVersion,
			"line", u.Line,
			"edit", u.Edit.Kind.String(),
			"error", err)

		return result, err
	}

	if !result.Accepted() {
		s.log.Info("stale update rejected",
			"doc_id", u.ID,
			"version", current.Version,
			"base_version", u.BaseVersion,
			"line", u.Line,
			"edit", u.Edit.Kind.String())

		return result, nil
	}

	if err := s.persist(result); err != nil {
		return document.Result{}, err
	}

	s.publish(result)

	s.log.Debug("update applied",
		"doc_id", u.ID,
		"version", result.Document.Version,
		"base_version", u.BaseVersion,
		"outcome", result.Outcome.String())

	return result, nil
}

// persist stores an accepted result and records its change.
func (s *Service) persist(result document.Result) error {
	id := result.Document.ID

	if err := s.store.Replace(id, result.Document); err != nil {
		return fmt.Errorf("replace document %d: %w", id, err)
	}

	if err := s.store.AppendChange(id, result.Change); err != nil {
		return fmt.Errorf("record change for document %d: %w", id, err)
	}

	if err := s.store.PruneChanges(id, s.historySize); err != nil {
		return fmt.Errorf("prune changes for document %d: %w", id, err)
	}

	return nil
}

func (s *Service) publish(result document.Result) {
	if s.hub == nil {
		return
	}

	s.hub.Publish(watch.Event{
		DocID:   result.Document.ID,
		Outcome: result.Outcome,
		Change:  result.Change,
	})
}

// Changes returns the changes that turn version sinceVersion of a document
// into its current version, oldest first.
func (s *Service) Changes(id int, sinceVersion int) ([]document.Change, error) {
	current, unlock, err := s.lockExisting(id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.changesLocked(current, sinceVersion)
}

// changesLocked returns the logged changes after sinceVersion, failing when
// the log no longer covers all of them. Callers must hold the document lock.
func (s *Service) changesLocked(current document.Document, sinceVersion int) ([]document.Change, error) {
	id := current.ID

	if sinceVersion > current.Version {
		return nil, fmt.Errorf("%w: since %d, current %d", document.ErrFutureVersion, sinceVersion, current.Version)
	}

	changes, err := s.store.Changes(id, sinceVersion)
	if err != nil {
		return nil, err
	}

	// Every version in (sinceVersion, current] must still be in the log.
	if len(changes) != current.Version-sinceVersion {
		return nil, fmt.Errorf("%w: since %d, retained %d of %d changes",
			ErrHistoryUnavailable, sinceVersion, len(changes), current.Version-sinceVersion)
	}

	return changes, nil
}

// CatchUp brings a client's older copy of a document to the current version
// by replaying the retained change log onto it.
func (s *Service) CatchUp(stale document.Document) (document.Document, error) {
	current, unlock, err := s.lockExisting(stale.ID)
	if err != nil {
		return document.Document{}, err
	}
	defer unlock()

	if _, err := s.changesLocked(current, stale.Version); err != nil {
		return document.Document{}, err
	}

	res, err := s.loader.Load(stale)
	if err != nil {
		return document.Document{}, err
	}

	s.log.Debug("client caught up",
		"doc_id", stale.ID,
		"from_version", stale.Version,
		"version", res.Document.Version,
		"replayed", res.Replayed)

	return res.Document, nil
}

// Subscribe returns a subscription to accepted changes of a document.
func (s *Service) Subscribe(id int) (*watch.Subscription, error) {
	if s.hub == nil {
		return nil, ErrNoHub
	}

	// Holding the lock orders this against Delete, which closes every
	// subscription of the document while holding it.
	_, unlock, err := s.lockExisting(id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.hub.Subscribe(id), nil
}

// lockExisting locks the mutex for id and returns the current document.
// Ids that were never created get no lock entry. A document deleted while
// the caller waited has its entry dropped; ids are never reused, so no
// later caller can need the old mutex.
func (s *Service) lockExisting(id int) (document.Document, func(), error) {
	if _, err := s.store.Fetch(id); err != nil {
		return document.Document{}, nil, err
	}

	lock := s.locks.get(id)
	lock.Lock()

	current, err := s.store.Fetch(id)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			s.locks.forget(id)
		}

		lock.Unlock()

		return document.Document{}, nil, err
	}

	return current, lock.Unlock, nil
}
