package operations

import (
	"golang.org/x/xerrors"

	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/types"
)

func (e *Engine) execJoinRequestMessage(msg types.Message) error {
	/* cast the message to its actual type. You assume it is the right type. */
	req, ok := msg.(*types.JoinRequestMessage)
	if !ok {
		return xerrors.Errorf("wrong type: %T", msg)
	}

	if !e.conf.Transport.IsOpen() {
		// Not a bootstrap peer. The reply is addressed at a routing-only
		// coordinate; the joiner never adopts it.
		reject := types.JoinRejectMessage{
			Transaction: req.Transaction,
			StepN:       req.StepN + 1,
			Reason:      "peer does not accept unsolicited joins",
		}
		target := ring.PeerKeyLocation{
			Peer:     req.Joiner.Peer,
			Location: ring.RandomLocation().Ptr(),
		}
		return e.bridgeSend(target, reject)
	}

	assigned := ring.RandomLocation()
	joiner := ring.PeerKeyLocation{Peer: req.Joiner.Peer, Location: assigned.Ptr()}

	r := e.ops.Ring()
	neighbors := r.NearestPeers(assigned, int(req.MaxNeighbors))
	if self := e.selfRef(); self.Location != nil {
		neighbors = append(neighbors, self)
	}

	e.conf.Bridge.AddConnection(joiner, true)
	r.AddNeighbor(joiner)

	e.log.Info().
		Stringer("tx", req.Transaction).
		Stringer("joiner", joiner.Peer).
		Stringer("location", assigned).
		Msg("admitting peer into the ring")

	accept := types.JoinAcceptMessage{
		Transaction:      req.Transaction,
		StepN:            req.StepN + 1,
		Acceptor:         e.selfRef(),
		AssignedLocation: assigned,
		Neighbors:        neighbors,
	}
	return e.bridgeSend(joiner, accept)
}

func (e *Engine) execJoinAcceptMessage(msg types.Message) error {
	/* cast the message to its actual type. You assume it is the right type. */
	accept, ok := msg.(*types.JoinAcceptMessage)
	if !ok {
		return xerrors.Errorf("wrong type: %T", msg)
	}

	op, err := e.ops.Pop(accept.Transaction)
	if err != nil {
		return err
	}
	if op == nil {
		// Already resolved; a duplicated or late delivery.
		e.log.Debug().Stringer("tx", accept.Transaction).Msg("ignoring stray join accept")
		return nil
	}
	joinOp, ok := op.(*JoinRingOp)
	if !ok {
		return xerrors.Errorf("wrong operation type: %T", op)
	}
	if accept.StepN <= joinOp.LastStep {
		// Reordered delivery from an earlier step; keep waiting.
		return e.ops.Push(accept.Transaction, joinOp)
	}

	r := e.ops.Ring()
	r.SetOwnLocation(accept.AssignedLocation)
	r.AddNeighbor(accept.Acceptor)
	for _, neighbor := range accept.Neighbors {
		r.AddNeighbor(neighbor)
	}
	e.conf.Bridge.AddConnection(accept.Acceptor, false)

	joinOp.notify <- JoinResult{
		Location:  accept.AssignedLocation,
		Neighbors: accept.Neighbors,
	}
	return nil
}

func (e *Engine) execJoinRejectMessage(msg types.Message) error {
	/* cast the message to its actual type. You assume it is the right type. */
	reject, ok := msg.(*types.JoinRejectMessage)
	if !ok {
		return xerrors.Errorf("wrong type: %T", msg)
	}

	op, err := e.ops.Pop(reject.Transaction)
	if err != nil {
		return err
	}
	if op == nil {
		return nil
	}
	joinOp, ok := op.(*JoinRingOp)
	if !ok {
		return xerrors.Errorf("wrong operation type: %T", op)
	}

	joinOp.notify <- JoinResult{
		Err: xerrors.Errorf("join rejected by %s: %s", joinOp.Bootstrap.Peer, reject.Reason),
	}
	return nil
}

func (e *Engine) execPutRequestMessage(msg types.Message) error {
	/* cast the message to its actual type. You assume it is the right type. */
	req, ok := msg.(*types.PutRequestMessage)
	if !ok {
		return xerrors.Errorf("wrong type: %T", msg)
	}

	target := e.closerPeer(req.Key, req.Requester.Peer)
	if req.Htl == 0 || target == nil {
		// Budget exhausted or nobody closer: the value lives here.
		if err := e.conf.Storage.Put(req.Key, req.Value); err != nil {
			return err
		}
		e.log.Info().
			Stringer("tx", req.Transaction).
			Stringer("key", req.Key).
			Msg("value stored")

		ack := types.PutAckMessage{
			Transaction: req.Transaction,
			StepN:       req.StepN + 1,
			Storer:      e.selfRef(),
			Key:         req.Key,
		}
		return e.bridgeSend(req.Requester, ack)
	}

	forward := *req
	forward.StepN++
	forward.Htl--
	return e.bridgeSend(*target, forward)
}

func (e *Engine) execPutAckMessage(msg types.Message) error {
	/* cast the message to its actual type. You assume it is the right type. */
	ack, ok := msg.(*types.PutAckMessage)
	if !ok {
		return xerrors.Errorf("wrong type: %T", msg)
	}

	op, err := e.ops.Pop(ack.Transaction)
	if err != nil {
		return err
	}
	if op == nil {
		e.log.Debug().Stringer("tx", ack.Transaction).Msg("ignoring stray put ack")
		return nil
	}
	putOp, ok := op.(*PutOp)
	if !ok {
		return xerrors.Errorf("wrong operation type: %T", op)
	}
	if ack.StepN <= putOp.LastStep {
		return e.ops.Push(ack.Transaction, putOp)
	}

	putOp.notify <- nil
	return nil
}

func (e *Engine) execGetRequestMessage(msg types.Message) error {
	/* cast the message to its actual type. You assume it is the right type. */
	req, ok := msg.(*types.GetRequestMessage)
	if !ok {
		return xerrors.Errorf("wrong type: %T", msg)
	}

	value, found, err := e.conf.Storage.Get(req.Key)
	if err != nil {
		return err
	}

	if found {
		resp := types.GetResponseMessage{
			Transaction: req.Transaction,
			StepN:       req.StepN + 1,
			Responder:   e.selfRef(),
			Key:         req.Key,
			Value:       value,
			Found:       true,
		}
		return e.bridgeSend(req.Requester, resp)
	}

	target := e.closerPeer(req.Key, req.Requester.Peer)
	if req.Htl == 0 || target == nil {
		// Lookup ends here empty-handed.
		resp := types.GetResponseMessage{
			Transaction: req.Transaction,
			StepN:       req.StepN + 1,
			Responder:   e.selfRef(),
			Key:         req.Key,
		}
		return e.bridgeSend(req.Requester, resp)
	}

	forward := *req
	forward.StepN++
	forward.Htl--
	return e.bridgeSend(*target, forward)
}

func (e *Engine) execGetResponseMessage(msg types.Message) error {
	/* cast the message to its actual type. You assume it is the right type. */
	resp, ok := msg.(*types.GetResponseMessage)
	if !ok {
		return xerrors.Errorf("wrong type: %T", msg)
	}

	op, err := e.ops.Pop(resp.Transaction)
	if err != nil {
		return err
	}
	if op == nil {
		e.log.Debug().Stringer("tx", resp.Transaction).Msg("ignoring stray get response")
		return nil
	}
	getOp, ok := op.(*GetOp)
	if !ok {
		return xerrors.Errorf("wrong operation type: %T", op)
	}
	if resp.StepN <= getOp.LastStep {
		return e.ops.Push(resp.Transaction, getOp)
	}

	getOp.notify <- GetResult{Value: resp.Value, Found: resp.Found}
	return nil
}
