// Package storage provides the peer's local value store. Values live at a
// ring location; a peer stores the values whose location it is nearest to.
package storage

import (
	"sync"

	"github.com/ZeroXClem/locutus/ring"
)

// Store is the contract operations use to keep and retrieve values.
type Store interface {
	// Put records value at key, overwriting any previous content.
	Put(key ring.Location, value []byte) error

	// Get retrieves the value at key. ok is false when the peer holds
	// nothing there.
	Get(key ring.Location) (value []byte, ok bool, err error)

	// Close releases the store's resources.
	Close() error
}

// InMem is a map-backed store used by tests and simulations.
//
// - implements storage.Store
type InMem struct {
	mu     sync.RWMutex
	values map[ring.Location][]byte
}

// NewInMem creates an empty in-memory store.
func NewInMem() *InMem {
	return &InMem{values: make(map[ring.Location][]byte)}
}

// Put implements storage.Store.
func (s *InMem) Put(key ring.Location, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.values[key] = cp
	return nil
}

// Get implements storage.Store.
func (s *InMem) Get(key ring.Location) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

// Close implements storage.Store.
func (s *InMem) Close() error {
	return nil
}
