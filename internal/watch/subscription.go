package watch

// Subscription receives events for a single document.
type Subscription struct {
	ID    string
	DocID int

	events chan Event
	hub    *Hub
}

// Events returns the channel events are delivered on. It is closed when the
// subscription is closed or the document is deleted.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close unsubscribes from the hub.
func (s *Subscription) Close() {
	s.hub.Unsubscribe(s)
}
