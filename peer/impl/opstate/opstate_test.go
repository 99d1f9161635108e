package opstate_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ZeroXClem/locutus/peer/impl/operations"
	"github.com/ZeroXClem/locutus/peer/impl/opstate"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/types"
)

func newStore() *opstate.Store {
	return opstate.NewStore(ring.NewRing(ring.NewPeerKey(), nil))
}

// opOfKind builds the operation variant matching a storable kind.
func opOfKind(kind types.TransactionKind) opstate.Operation {
	switch kind {
	case types.KindJoinRing:
		return &operations.JoinRingOp{}
	case types.KindPut:
		return &operations.PutOp{}
	default:
		return &operations.GetOp{}
	}
}

func TestPushPopIsolatesTransactions(t *testing.T) {
	s := newStore()

	t1 := types.NewTransaction(types.KindJoinRing)
	t2 := types.NewTransaction(types.KindPut)
	opA := &operations.JoinRingOp{Transaction: t1}
	opB := &operations.PutOp{Transaction: t2}

	require.NoError(t, s.Push(t1, opA))
	require.NoError(t, s.Push(t2, opB))

	got1, err := s.Pop(t1)
	require.NoError(t, err)
	require.Same(t, opA, got1)

	got2, err := s.Pop(t2)
	require.NoError(t, err)
	require.Same(t, opB, got2)
}

func TestPushRejectsKindMismatch(t *testing.T) {
	kinds := []types.TransactionKind{types.KindJoinRing, types.KindPut, types.KindGet}

	for _, idKind := range kinds {
		for _, opKind := range kinds {
			s := newStore()
			id := types.NewTransaction(idKind)
			err := s.Push(id, opOfKind(opKind))

			if idKind == opKind {
				require.NoError(t, err)
				continue
			}
			var mismatch *opstate.IncorrectTxTypeError
			require.ErrorAs(t, err, &mismatch)
			require.Equal(t, opKind, mismatch.Expected)
			require.Equal(t, idKind, mismatch.Actual)
			require.Equal(t, 0, s.Len())
		}
	}
}

func TestPopAbsentReturnsNothing(t *testing.T) {
	s := newStore()
	op, err := s.Pop(types.NewTransaction(types.KindGet))
	require.NoError(t, err)
	require.Nil(t, op)
}

func TestPopCanceledFailsFast(t *testing.T) {
	s := newStore()
	op, err := s.Pop(types.NewTransaction(types.KindCanceled))
	require.Nil(t, op)

	var mismatch *opstate.IncorrectTxTypeError
	require.ErrorAs(t, err, &mismatch)
}

func TestPushRejectsSameIDReplacement(t *testing.T) {
	s := newStore()
	id := types.NewTransaction(types.KindPut)

	require.NoError(t, s.Push(id, &operations.PutOp{Transaction: id}))
	err := s.Push(id, &operations.PutOp{Transaction: id})

	var update *opstate.TxUpdateFailureError
	require.ErrorAs(t, err, &update)
	require.Equal(t, id, update.Tx)

	// Pop-then-push is the legal continuation path.
	op, err := s.Pop(id)
	require.NoError(t, err)
	require.NotNil(t, op)
	require.NoError(t, s.Push(id, op))
}

func TestConcurrentPopYieldsOperationExactlyOnce(t *testing.T) {
	for i := 0; i < 100; i++ {
		s := newStore()
		id := types.NewTransaction(types.KindGet)
		stored := &operations.GetOp{Transaction: id}
		require.NoError(t, s.Push(id, stored))

		var wg sync.WaitGroup
		results := make([]opstate.Operation, 2)
		errs := make([]error, 2)
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				results[slot], errs[slot] = s.Pop(id)
			}(j)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		if results[0] != nil {
			require.Same(t, stored, results[0])
			require.Nil(t, results[1])
		} else {
			require.Same(t, stored, results[1])
		}
	}
}

func TestStoreExposesSharedRing(t *testing.T) {
	r := ring.NewRing(ring.NewPeerKey(), nil)
	s := opstate.NewStore(r)
	require.Same(t, r, s.Ring())
}
