package types

import (
	"fmt"

	"github.com/rs/xid"
)

// TransactionKind identifies which distributed operation a transaction
// belongs to. A transaction's kind never changes and must agree with the
// variant of the operation state stored under it.
type TransactionKind uint8

const (
	// KindJoinRing is a multi-hop admission exchange into the ring.
	KindJoinRing TransactionKind = iota
	// KindPut propagates a value toward the peers nearest its location.
	KindPut
	// KindGet routes a lookup toward the peer nearest a target location.
	KindGet
	// KindCanceled marks an abandoned transaction. It is not a valid
	// storage key for operation state.
	KindCanceled
)

func (k TransactionKind) String() string {
	switch k {
	case KindJoinRing:
		return "join-ring"
	case KindPut:
		return "put"
	case KindGet:
		return "get"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Transaction correlates every message of one logical multi-hop exchange.
// It is immutable once created; use xid so ids are unique across peers
// without coordination.
type Transaction struct {
	ID   string          `msgpack:"id"`
	Kind TransactionKind `msgpack:"kind"`
}

// NewTransaction mints a transaction of the given kind with a fresh id.
func NewTransaction(kind TransactionKind) Transaction {
	return Transaction{ID: xid.New().String(), Kind: kind}
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s/%s", t.Kind, t.ID)
}
