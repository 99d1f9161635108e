package inmem

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"github.com/ZeroXClem/locutus/registry"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/transport"
	"github.com/ZeroXClem/locutus/types"
)

// DefaultPollInterval is the tick of the background drain loops. Consumers
// must tolerate delivery latency up to roughly this interval.
const DefaultPollInterval = 10 * time.Millisecond

// Conn is one peer's connection to the shared in-memory fabric.
//
// Two background loops run for the lifetime of the fabric: the filter loop
// drains the peer's mailbox on a fixed tick and retains only envelopes
// addressed to this peer, and the decode loop deserializes retained
// envelopes into the queue Recv consumes. Both are polling loops, not
// wake-on-arrival, and both take only non-blocking locks on the Recv-facing
// queue so a stalled consumer never backpressures the fabric.
//
// - implements transport.Transport
// - implements transport.ConnectionBridge
type Conn struct {
	self     ring.PeerKey
	location *ring.Location
	open     bool
	poll     time.Duration

	fabric *Fabric
	inbox  *mailbox
	reg    registry.Registry
	log    zerolog.Logger

	// pending holds envelopes kept by the filter loop, awaiting decode.
	pending struct {
		sync.Mutex
		queue []transport.Envelope
	}

	// msgs is the decoded queue Recv pops from. Hot paths take it with
	// TryLock only.
	msgs struct {
		sync.Mutex
		queue []types.Message
	}

	closed atomic.Bool
}

// NewConn attaches a peer to the fabric and starts its background loops.
// isOpen declares whether this endpoint accepts unsolicited joins; location
// is the peer's assigned ring position, or nil for a peer that still has to
// join.
func NewConn(fabric *Fabric, reg registry.Registry, isOpen bool,
	self ring.PeerKey, location *ring.Location, log zerolog.Logger) *Conn {

	c := &Conn{
		self:     self,
		location: location,
		open:     isOpen,
		poll:     DefaultPollInterval,
		fabric:   fabric,
		inbox:    fabric.attach(self),
		reg:      reg,
		log:      log.With().Stringer("peer", self).Logger(),
	}

	go c.filterLoop()
	go c.decodeLoop()

	return c
}

// IsOpen implements transport.Transport.
func (c *Conn) IsOpen() bool {
	return c.open
}

// Location implements transport.Transport.
func (c *Conn) Location() *ring.Location {
	if c.location == nil {
		return nil
	}
	return c.location.Ptr()
}

// Recv implements transport.ConnectionBridge.
func (c *Conn) Recv(ctx context.Context) (types.Message, error) {
	for {
		if c.msgs.TryLock() {
			if n := len(c.msgs.queue); n > 0 {
				msg := c.msgs.queue[n-1]
				c.msgs.queue = c.msgs.queue[:n-1]
				c.msgs.Unlock()
				return msg, nil
			}
			c.msgs.Unlock()
			if c.closed.Load() {
				return nil, transport.ErrTransportClosed
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.poll):
		}
	}
}

// Send implements transport.ConnectionBridge.
func (c *Conn) Send(target ring.PeerKeyLocation, msg types.Message) error {
	if target.Location == nil {
		return transport.ErrLocationUnknown
	}

	data, err := c.reg.Marshal(msg)
	if err != nil {
		return xerrors.Errorf("%w: %v", transport.ErrSerialization, err)
	}

	err = c.fabric.broadcast(transport.Envelope{
		Origin:    c.self,
		OriginLoc: c.Location(),
		Target:    target.Peer,
		Data:      data,
	})
	if err != nil {
		c.log.Error().Msg("network shutdown")
		return err
	}
	return nil
}

// AddConnection implements transport.ConnectionBridge. The in-memory fabric
// is globally connected, so there is nothing to record.
func (c *Conn) AddConnection(ring.PeerKeyLocation, bool) {}

// filterLoop drains the shared medium and retains envelopes addressed to
// this peer. Envelopes for other peers are discarded, not requeued. The
// loop terminates only on permanent fabric closure, which it logs: the
// inbound path is unrecoverable from that point.
func (c *Conn) filterLoop() {
	for {
		env, ok, err := c.inbox.tryRecv()
		switch {
		case err != nil:
			c.closed.Store(true)
			c.log.Error().Msg("stopped receiving messages: fabric closed")
			return
		case ok && env.Target == c.self:
			c.log.Debug().
				Stringer("origin", env.Origin).
				Msg("inbound envelope received")
			c.pending.Lock()
			c.pending.queue = append(c.pending.queue, env)
			c.pending.Unlock()
		default:
			// Foreign envelope dropped, or nothing to read yet.
			time.Sleep(c.poll)
		}
	}
}

// decodeLoop deserializes retained envelopes into the Recv queue. The Recv
// queue is only ever taken with TryLock; a decoded message that cannot be
// handed over this tick is kept and retried on the next one.
func (c *Conn) decodeLoop() {
	var held types.Message
	for {
		if held == nil {
			c.pending.Lock()
			var env *transport.Envelope
			if n := len(c.pending.queue); n > 0 {
				e := c.pending.queue[n-1]
				c.pending.queue = c.pending.queue[:n-1]
				env = &e
			}
			c.pending.Unlock()

			if env != nil {
				msg, err := c.reg.Unmarshal(env.Data)
				if err != nil {
					c.log.Error().Err(err).
						Stringer("origin", env.Origin).
						Msg("dropping undecodable envelope")
				} else {
					held = msg
				}
			}
		}

		if held != nil && c.msgs.TryLock() {
			c.msgs.queue = append(c.msgs.queue, held)
			c.msgs.Unlock()
			held = nil
			continue
		}

		if c.closed.Load() && held == nil && c.pendingEmpty() {
			return
		}
		time.Sleep(c.poll)
	}
}

func (c *Conn) pendingEmpty() bool {
	c.pending.Lock()
	defer c.pending.Unlock()
	return len(c.pending.queue) == 0
}
