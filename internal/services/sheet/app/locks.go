package app

import "sync"

// characterLocks serializes commands per character id. Entries are dropped
// once no caller holds or waits on them.
type characterLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (l *characterLocks) lock(id string) func() {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = map[string]*lockEntry{}
	}
	entry, ok := l.entries[id]
	if !ok {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
