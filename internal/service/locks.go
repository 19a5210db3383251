package service

import "sync"

// keyedLocks hands out one mutex per key so work on a single entity is
// serialized while unrelated keys proceed concurrently.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire returns the key's mutex already locked. The caller must Unlock it.
func (l *keyedLocks) acquire(key string) *sync.Mutex {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()
	lock.Lock()
	return lock
}
