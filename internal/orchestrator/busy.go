package orchestrator

import "sync"

// busySet serializes operations per note. An id is held for the whole
// claim or recall and released on completion or failure.
type busySet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newBusySet() busySet {
	return busySet{ids: make(map[string]struct{})}
}

func (b *busySet) acquire(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, held := b.ids[id]; held {
		return false
	}
	b.ids[id] = struct{}{}
	return true
}

// acquireAll takes every id or none: a single busy note rejects the whole
// batch.
func (b *busySet) acquireAll(ids []string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		if _, held := b.ids[id]; held {
			return false
		}
	}
	for _, id := range ids {
		b.ids[id] = struct{}{}
	}
	return true
}

func (b *busySet) release(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		delete(b.ids, id)
	}
}
