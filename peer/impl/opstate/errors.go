package opstate

import (
	"fmt"

	"github.com/ZeroXClem/locutus/types"
)

// IncorrectTxTypeError reports a disagreement between a transaction's
// declared kind and the operation variant involved. This is a contract
// violation by the caller, never an expected runtime condition, and is not
// retryable.
type IncorrectTxTypeError struct {
	Expected types.TransactionKind
	Actual   types.TransactionKind
}

func (e *IncorrectTxTypeError) Error() string {
	if e.Actual == types.KindCanceled {
		return "canceled transactions cannot key operation state"
	}
	return fmt.Sprintf("unexpected transaction type, trying to use a %s under a %s",
		e.Expected, e.Actual)
}

// TxUpdateFailureError reports that a transaction's stored state could not
// be updated, typically because two writers collided on the same id.
type TxUpdateFailureError struct {
	Tx types.Transaction
}

func (e *TxUpdateFailureError) Error() string {
	return fmt.Sprintf("failed while processing transaction %s", e.Tx)
}
