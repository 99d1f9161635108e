// Package opstate owns the in-flight operation state of one peer, keyed by
// transaction. The store enforces at its boundary that a transaction's
// declared kind agrees with the variant stored under it, so operation logic
// never needs runtime type inspection to trust a lookup.
package opstate

import (
	"sync"

	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/types"
)

// Operation is one peer's mutable progress state for one in-flight
// transaction. Concrete variants live with the operation state machines;
// the store only needs the declared kind.
type Operation interface {
	// Kind returns the transaction kind this operation variant belongs to.
	Kind() types.TransactionKind
}

// Store holds all in-flight operations of the local peer plus the shared
// ring view operation logic consults and mutates while progressing.
//
// Entries live exactly as long as their transaction: created atomically
// with the operation, removed on terminal success, terminal failure or
// cancellation. Nothing persists beyond the process.
type Store struct {
	mu   sync.Mutex
	ops  map[types.Transaction]Operation
	ring *ring.Ring
}

// NewStore creates an empty operation store sharing the given ring view.
func NewStore(r *ring.Ring) *Store {
	return &Store{
		ops:  make(map[types.Transaction]Operation),
		ring: r,
	}
}

// Ring exposes the shared topology view to operation logic.
func (s *Store) Ring() *ring.Ring {
	return s.ring
}

// Push registers op under id. It fails with IncorrectTxTypeError when the
// id's kind disagrees with the operation variant, and with
// TxUpdateFailureError when an entry already exists for the same id:
// operations are not resumable, so a same-id collision means two writers
// raced on one transaction.
func (s *Store) Push(id types.Transaction, op Operation) error {
	if id.Kind != op.Kind() {
		return &IncorrectTxTypeError{Expected: op.Kind(), Actual: id.Kind}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ops[id]; exists {
		return &TxUpdateFailureError{Tx: id}
	}
	s.ops[id] = op
	return nil
}

// Pop removes and returns the operation stored under id, or nil if there is
// none. A Canceled-kind id is never a valid storage key and fails fast
// instead of silently resolving to nothing.
func (s *Store) Pop(id types.Transaction) (Operation, error) {
	if id.Kind == types.KindCanceled {
		return nil, &IncorrectTxTypeError{
			Expected: types.KindCanceled,
			Actual:   types.KindCanceled,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[id]
	if !ok {
		return nil, nil
	}
	delete(s.ops, id)
	return op, nil
}

// Len returns the number of in-flight operations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}
