package operations

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"github.com/ZeroXClem/locutus/peer"
	"github.com/ZeroXClem/locutus/peer/impl/opstate"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/types"
)

// ErrNotFound is returned by a lookup that exhausted its hop budget without
// reaching a peer holding the value.
var ErrNotFound = xerrors.New("value not found in the ring")

// Engine drives the operation state machines. Initiated operations are
// pushed into the opstate store and advanced by the message callbacks in
// handler.go as replies arrive; terminal messages pop them and resolve the
// initiator's wait.
type Engine struct {
	conf *peer.Configuration
	ops  *opstate.Store
	log  zerolog.Logger
}

// NewEngine creates the operation engine and registers its message
// callbacks on the configuration's message registry.
func NewEngine(conf *peer.Configuration, ops *opstate.Store, log zerolog.Logger) *Engine {
	e := &Engine{
		conf: conf,
		ops:  ops,
		log:  log.With().Stringer("peer", conf.Self).Logger(),
	}

	reg := conf.MessageRegistry
	reg.RegisterMessageCallback(types.JoinRequestMessage{}, e.execJoinRequestMessage)
	reg.RegisterMessageCallback(types.JoinAcceptMessage{}, e.execJoinAcceptMessage)
	reg.RegisterMessageCallback(types.JoinRejectMessage{}, e.execJoinRejectMessage)
	reg.RegisterMessageCallback(types.PutRequestMessage{}, e.execPutRequestMessage)
	reg.RegisterMessageCallback(types.PutAckMessage{}, e.execPutAckMessage)
	reg.RegisterMessageCallback(types.GetRequestMessage{}, e.execGetRequestMessage)
	reg.RegisterMessageCallback(types.GetResponseMessage{}, e.execGetResponseMessage)

	return e
}

// ContentLocation maps a value onto the ring space by hashing its content.
// Every peer computes the same location for the same bytes.
func ContentLocation(value []byte) ring.Location {
	sum := sha256.Sum256(value)
	bits := binary.BigEndian.Uint64(sum[:8])
	// 53 mantissa bits keep the result strictly below 1.0.
	return ring.Location(float64(bits>>11) / (1 << 53))
}

// selfRef returns this peer's reference with its current ring position.
func (e *Engine) selfRef() ring.PeerKeyLocation {
	return ring.PeerKeyLocation{
		Peer:     e.conf.Self,
		Location: e.ops.Ring().OwnLocation(),
	}
}

// closerPeer picks the known neighbor nearest to target that is strictly
// closer than this peer itself, skipping excluded peers. Returns nil when
// routing cannot make progress, which means the value belongs here.
func (e *Engine) closerPeer(target ring.Location, exclude ring.PeerKey) *ring.PeerKeyLocation {
	r := e.ops.Ring()
	own := r.OwnLocation()
	for _, cand := range r.NearestPeers(target, e.conf.MaxNeighbors) {
		if cand.Peer == exclude {
			continue
		}
		if own == nil || cand.Location.Distance(target) < own.Distance(target) {
			c := cand
			return &c
		}
	}
	return nil
}

// StartJoin runs the admission exchange against bootstrap and blocks until
// it terminates. The bootstrap reference must carry a resolved location.
func (e *Engine) StartJoin(ctx context.Context, bootstrap ring.PeerKeyLocation) error {
	tx := types.NewTransaction(types.KindJoinRing)
	op := &JoinRingOp{
		Transaction: tx,
		Bootstrap:   bootstrap,
		Deadline:    time.Now().Add(e.conf.OpTimeout),
		notify:      make(chan JoinResult, 1),
	}
	if err := e.ops.Push(tx, op); err != nil {
		return err
	}

	req := types.JoinRequestMessage{
		Transaction:  tx,
		Joiner:       ring.PeerKeyLocation{Peer: e.conf.Self},
		MaxNeighbors: uint32(e.conf.MaxNeighbors),
	}
	if err := e.bridgeSend(bootstrap, req); err != nil {
		// Never reached the fabric; forget the operation.
		_, _ = e.ops.Pop(tx)
		return err
	}

	res, err := awaitResult(ctx, e.ops, tx, op.Deadline, op.notify)
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}
	e.log.Info().
		Stringer("tx", tx).
		Stringer("location", res.Location).
		Msg("joined the ring")
	return nil
}

// StartPut stores value at its content location and blocks until a peer
// acknowledges holding it. Requires a completed join.
func (e *Engine) StartPut(ctx context.Context, value []byte) (ring.Location, error) {
	key := ContentLocation(value)
	if e.ops.Ring().OwnLocation() == nil {
		return key, xerrors.New("put requires a joined ring position")
	}

	target := e.closerPeer(key, e.conf.Self)
	if target == nil {
		// No neighbor is closer: the value belongs to this peer.
		if err := e.conf.Storage.Put(key, value); err != nil {
			return key, err
		}
		return key, nil
	}

	tx := types.NewTransaction(types.KindPut)
	op := &PutOp{
		Transaction: tx,
		Key:         key,
		Value:       value,
		Deadline:    time.Now().Add(e.conf.OpTimeout),
		notify:      make(chan error, 1),
	}
	if err := e.ops.Push(tx, op); err != nil {
		return key, err
	}

	req := types.PutRequestMessage{
		Transaction: tx,
		Requester:   e.selfRef(),
		Key:         key,
		Value:       value,
		Htl:         e.conf.HopBudget,
	}
	if err := e.bridgeSend(*target, req); err != nil {
		_, _ = e.ops.Pop(tx)
		return key, err
	}

	res, err := awaitResult(ctx, e.ops, tx, op.Deadline, op.notify)
	if err != nil {
		return key, err
	}
	return key, res
}

// StartGet retrieves the value at key, blocking until a peer answers or the
// lookup exhausts its budget. Requires a completed join.
func (e *Engine) StartGet(ctx context.Context, key ring.Location) ([]byte, error) {
	if value, ok, err := e.conf.Storage.Get(key); err != nil {
		return nil, err
	} else if ok {
		return value, nil
	}
	if e.ops.Ring().OwnLocation() == nil {
		return nil, xerrors.New("get requires a joined ring position")
	}

	target := e.closerPeer(key, e.conf.Self)
	if target == nil {
		// Nothing stored here and nobody closer to ask.
		return nil, ErrNotFound
	}

	tx := types.NewTransaction(types.KindGet)
	op := &GetOp{
		Transaction: tx,
		Key:         key,
		Deadline:    time.Now().Add(e.conf.OpTimeout),
		notify:      make(chan GetResult, 1),
	}
	if err := e.ops.Push(tx, op); err != nil {
		return nil, err
	}

	req := types.GetRequestMessage{
		Transaction: tx,
		Requester:   e.selfRef(),
		Key:         key,
		Htl:         e.conf.HopBudget,
	}
	if err := e.bridgeSend(*target, req); err != nil {
		_, _ = e.ops.Pop(tx)
		return nil, err
	}

	res, err := awaitResult(ctx, e.ops, tx, op.Deadline, op.notify)
	if err != nil {
		return nil, err
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if !res.Found {
		return nil, ErrNotFound
	}
	return res.Value, nil
}

// bridgeSend forwards msg to target through the connection bridge.
func (e *Engine) bridgeSend(target ring.PeerKeyLocation, msg types.Message) error {
	if err := e.conf.Bridge.Send(target, msg); err != nil {
		return xerrors.Errorf("failed to send %s to %s: %w", msg.Name(), target.Peer, err)
	}
	return nil
}

// awaitResult blocks the initiator until its operation terminates, the
// context is canceled, or the deadline passes. On timeout the operation is
// popped so its entry does not outlive the exchange; when the pop races a
// concurrent terminal message, exactly one side wins the entry, and losing
// the race means the result is already on its way.
func awaitResult[T any](ctx context.Context, ops *opstate.Store,
	tx types.Transaction, deadline time.Time, notify <-chan T) (T, error) {

	var zero T
	select {
	case res := <-notify:
		return res, nil
	case <-ctx.Done():
		_, _ = ops.Pop(tx)
		return zero, ctx.Err()
	case <-time.After(time.Until(deadline)):
		popped, err := ops.Pop(tx)
		if err != nil {
			return zero, err
		}
		if popped == nil {
			// The terminal handler won the race; its result is in flight.
			return <-notify, nil
		}
		return zero, xerrors.Errorf("transaction %s timed out", tx)
	}
}
