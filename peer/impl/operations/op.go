// Package operations implements the per-transaction state machines of the
// ring protocol: joining the ring, storing a value and retrieving a value.
// Each operation is keyed by its transaction and advanced message by
// message; the opstate store owns every in-flight operation between steps.
package operations

import (
	"time"

	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/types"
)

// JoinResult is delivered to the joiner when its admission exchange
// terminates.
type JoinResult struct {
	Location  ring.Location
	Neighbors []ring.PeerKeyLocation
	Err       error
}

// GetResult is delivered to the requester when its lookup terminates.
type GetResult struct {
	Value []byte
	Found bool
	Err   error
}

// JoinRingOp is the joiner-side state of one admission exchange.
//
// - implements opstate.Operation
type JoinRingOp struct {
	Transaction types.Transaction
	Bootstrap   ring.PeerKeyLocation
	Deadline    time.Time

	// LastStep is the highest exchange step already processed; replies at
	// or below it are reordered or duplicated deliveries and are ignored.
	LastStep uint32

	notify chan JoinResult
}

// Kind implements opstate.Operation.
func (op *JoinRingOp) Kind() types.TransactionKind {
	return types.KindJoinRing
}

// PutOp is the initiator-side state of one value store exchange.
//
// - implements opstate.Operation
type PutOp struct {
	Transaction types.Transaction
	Key         ring.Location
	Value       []byte
	Deadline    time.Time
	LastStep    uint32

	notify chan error
}

// Kind implements opstate.Operation.
func (op *PutOp) Kind() types.TransactionKind {
	return types.KindPut
}

// GetOp is the requester-side state of one lookup exchange.
//
// - implements opstate.Operation
type GetOp struct {
	Transaction types.Transaction
	Key         ring.Location
	Deadline    time.Time
	LastStep    uint32

	notify chan GetResult
}

// Kind implements opstate.Operation.
func (op *GetOp) Kind() types.TransactionKind {
	return types.KindGet
}
