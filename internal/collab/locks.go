package collab

import "sync"

// docLocks hands out one mutex per document id so read-modify-write cycles
// on the same document are serialised while different documents proceed in
// parallel.
type docLocks struct {
	mu    sync.RWMutex
	locks map[int]*sync.Mutex
}

func newDocLocks() *docLocks {
	return &docLocks{locks: make(map[int]*sync.Mutex)}
}

// get returns the mutex for id, creating it on first use.
func (l *docLocks) get(id int) *sync.Mutex {
	l.mu.RLock()
	lock, exists := l.locks[id]
	l.mu.RUnlock()

	if exists {
		return lock
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if lock, exists = l.locks[id]; exists {
		return lock
	}

	lock = &sync.Mutex{}
	l.locks[id] = lock

	return lock
}

// forget drops the mutex for id. The caller must hold it.
func (l *docLocks) forget(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, id)
}

func (l *docLocks) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.locks)
}
