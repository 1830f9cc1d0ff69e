package reconcile

import (
	"sync"
)

// Serializer runs read-modify-write cycles for the same collection one after
// another. It only guards callers inside this process; the remote service has no
// version token, so concurrent writers elsewhere still win last.
type Serializer struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSerializer() *Serializer {
	return &Serializer{
		locks: map[string]*sync.Mutex{},
	}
}

// Do runs fn while holding the lock for collection.
func (s *Serializer) Do(collection string, fn func()) {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()
	fn()
}

func (s *Serializer) lock(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	return l
}
