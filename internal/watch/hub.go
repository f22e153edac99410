package watch

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/serroba/line-docs/internal/document"
)

const defaultBuffer = 16

// Event describes an accepted change to a document, or its deletion.
type Event struct {
	DocID   int
	Outcome document.Outcome
	Change  document.Change
	Deleted bool
}

// HubConfig holds configuration for creating a hub.
type HubConfig struct {
	// Buffer is the per-subscription event buffer. Defaults to 16.
	Buffer int
}

// Hub fans out document events to in-process subscribers.
// Publishing never blocks: an event for a subscriber whose buffer is full is
// dropped and counted.
type Hub struct {
	mu sync.RWMutex

	// subs maps subscription ID to subscription
	subs map[string]*Subscription
	// documents maps document ID to set of subscription IDs
	documents map[int]map[string]struct{}

	buffer  int
	dropped atomic.Int64
}

// NewHub creates a new Hub.
func NewHub(cfg HubConfig) *Hub {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	return &Hub{
		subs:      make(map[string]*Subscription),
		documents: make(map[int]map[string]struct{}),
		buffer:    buffer,
	}
}

// Subscribe registers interest in events for docID.
func (h *Hub) Subscribe(docID int) *Subscription {
	sub := &Subscription{
		ID:     uuid.New().String(),
		DocID:  docID,
		events: make(chan Event, h.buffer),
		hub:    h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.subs[sub.ID] = sub

	if h.documents[docID] == nil {
		h.documents[docID] = make(map[string]struct{})
	}

	h.documents[docID][sub.ID] = struct{}{}

	return sub
}

// Unsubscribe removes a subscription and closes its event channel.
// Unsubscribing twice is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.remove(sub)
}

// remove detaches sub. Callers must hold h.mu for writing.
func (h *Hub) remove(sub *Subscription) {
	if _, ok := h.subs[sub.ID]; !ok {
		return
	}

	delete(h.subs, sub.ID)

	if ids, ok := h.documents[sub.DocID]; ok {
		delete(ids, sub.ID)

		if len(ids) == 0 {
			delete(h.documents, sub.DocID)
		}
	}

	close(sub.events)
}

// Publish delivers ev to every subscriber of ev.DocID.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id := range h.documents[ev.DocID] {
		sub := h.subs[id]

		select {
		case sub.events <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// CloseDocument removes every subscription for docID.
func (h *Hub) CloseDocument(docID int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id := range h.documents[docID] {
		h.remove(h.subs[id])
	}
}

// SubscriberCount returns the number of subscriptions for a document.
func (h *Hub) SubscriberCount(docID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.documents[docID])
}

// TotalSubscribers returns the total number of subscriptions.
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs)
}

// Dropped returns how many events were discarded because a buffer was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
