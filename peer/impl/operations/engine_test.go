package operations

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ZeroXClem/locutus/peer"
	"github.com/ZeroXClem/locutus/peer/impl/opstate"
	"github.com/ZeroXClem/locutus/registry"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/storage"
	"github.com/ZeroXClem/locutus/transport"
	"github.com/ZeroXClem/locutus/types"
)

// stubBridge records outbound messages and never delivers anything.
//
// - implements transport.Transport
// - implements transport.ConnectionBridge
type stubBridge struct {
	mu   sync.Mutex
	open bool
	sent []types.Message
}

func (s *stubBridge) IsOpen() bool             { return s.open }
func (s *stubBridge) Location() *ring.Location { return ring.Location(0.5).Ptr() }

func (s *stubBridge) Recv(ctx context.Context) (types.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *stubBridge) Send(target ring.PeerKeyLocation, msg types.Message) error {
	if target.Location == nil {
		return transport.ErrLocationUnknown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubBridge) AddConnection(ring.PeerKeyLocation, bool) {}

func (s *stubBridge) lastSent() types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil
	}
	return s.sent[len(s.sent)-1]
}

func newTestEngine(t *testing.T, open bool) (*Engine, *stubBridge, *opstate.Store) {
	t.Helper()

	bridge := &stubBridge{open: open}
	conf := &peer.Configuration{
		Self:            ring.NewPeerKey(),
		Bridge:          bridge,
		Transport:       bridge,
		MessageRegistry: registry.NewRegistry(),
		Storage:         storage.NewInMem(),
		HopBudget:       5,
		MaxNeighbors:    5,
	}
	ops := opstate.NewStore(ring.NewRing(conf.Self, ring.Location(0.5).Ptr()))
	return NewEngine(conf, ops, zerolog.Nop()), bridge, ops
}

func TestContentLocationIsDeterministic(t *testing.T) {
	value := []byte("same bytes, same place")
	first := ContentLocation(value)
	second := ContentLocation(value)
	require.Equal(t, first, second)
	require.GreaterOrEqual(t, float64(first), 0.0)
	require.Less(t, float64(first), 1.0)

	require.NotEqual(t, first, ContentLocation([]byte("different bytes")))
}

func TestStaleAckKeepsOperationInFlight(t *testing.T) {
	e, _, ops := newTestEngine(t, true)

	tx := types.NewTransaction(types.KindPut)
	op := &PutOp{Transaction: tx, LastStep: 5, notify: make(chan error, 1)}
	require.NoError(t, ops.Push(tx, op))

	// A reordered delivery from an earlier step must not terminate the
	// operation.
	stale := &types.PutAckMessage{Transaction: tx, StepN: 3}
	require.NoError(t, e.execPutAckMessage(stale))
	require.Equal(t, 1, ops.Len())
	require.Empty(t, op.notify)

	fresh := &types.PutAckMessage{Transaction: tx, StepN: 6}
	require.NoError(t, e.execPutAckMessage(fresh))
	require.Equal(t, 0, ops.Len())
	require.NoError(t, <-op.notify)
}

func TestDuplicateTerminalMessageIsIgnored(t *testing.T) {
	e, _, ops := newTestEngine(t, true)

	tx := types.NewTransaction(types.KindGet)
	op := &GetOp{Transaction: tx, notify: make(chan GetResult, 1)}
	require.NoError(t, ops.Push(tx, op))

	resp := &types.GetResponseMessage{Transaction: tx, StepN: 1, Found: true, Value: []byte("v")}
	require.NoError(t, e.execGetResponseMessage(resp))
	require.Equal(t, 0, ops.Len())

	// The duplicate finds no operation and resolves to a no-op.
	require.NoError(t, e.execGetResponseMessage(resp))
	require.Len(t, op.notify, 1)
}

func TestClosedPeerRejectsJoinRequests(t *testing.T) {
	e, bridge, _ := newTestEngine(t, false)

	req := &types.JoinRequestMessage{
		Transaction: types.NewTransaction(types.KindJoinRing),
		Joiner:      ring.PeerKeyLocation{Peer: ring.NewPeerKey()},
	}
	require.NoError(t, e.execJoinRequestMessage(req))

	sent := bridge.lastSent()
	require.NotNil(t, sent)
	require.Equal(t, "joinreject", sent.Name())
}

func TestOpenPeerAdmitsJoiner(t *testing.T) {
	e, bridge, ops := newTestEngine(t, true)

	joiner := ring.NewPeerKey()
	req := &types.JoinRequestMessage{
		Transaction:  types.NewTransaction(types.KindJoinRing),
		Joiner:       ring.PeerKeyLocation{Peer: joiner},
		MaxNeighbors: 5,
	}
	require.NoError(t, e.execJoinRequestMessage(req))

	sent := bridge.lastSent()
	require.NotNil(t, sent)
	accept, ok := sent.(types.JoinAcceptMessage)
	require.True(t, ok)
	require.Equal(t, req.Transaction, accept.Transaction)

	// The acceptor recorded the joiner in its own view.
	require.Equal(t, 1, ops.Ring().Connections())
}

func TestGetRequestAnswersFromLocalStore(t *testing.T) {
	e, bridge, _ := newTestEngine(t, true)

	value := []byte("held locally")
	key := ContentLocation(value)
	require.NoError(t, e.conf.Storage.Put(key, value))

	req := &types.GetRequestMessage{
		Transaction: types.NewTransaction(types.KindGet),
		Requester:   ring.PeerKeyLocation{Peer: ring.NewPeerKey(), Location: ring.Location(0.1).Ptr()},
		Key:         key,
		Htl:         3,
	}
	require.NoError(t, e.execGetRequestMessage(req))

	resp, ok := bridge.lastSent().(types.GetResponseMessage)
	require.True(t, ok)
	require.True(t, resp.Found)
	require.Equal(t, value, resp.Value)
}
