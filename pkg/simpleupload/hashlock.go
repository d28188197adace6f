package simpleupload

import "sync"

// hashLock serializes ingest per content hash so two concurrent uploads of
// identical new content cannot both miss the duplicate check. Locks are
// created on demand and dropped once the last holder releases them.
type hashLock struct {
	mu    sync.Mutex
	locks map[string]*hashLockEntry
}

type hashLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newHashLock() *hashLock {
	return &hashLock{locks: make(map[string]*hashLockEntry)}
}

func (h *hashLock) lock(hash string) {
	h.mu.Lock()
	e, ok := h.locks[hash]
	if !ok {
		e = &hashLockEntry{}
		h.locks[hash] = e
	}
	e.refs++
	h.mu.Unlock()

	e.mu.Lock()
}

func (h *hashLock) unlock(hash string) {
	h.mu.Lock()
	e := h.locks[hash]
	e.refs--
	if e.refs == 0 {
		delete(h.locks, hash)
	}
	h.mu.Unlock()

	e.mu.Unlock()
}
