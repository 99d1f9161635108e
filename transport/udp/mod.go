// Package udp implements the transport contracts over UDP datagrams, for
// peers running on a real network. Delivery keeps the same guarantees the
// contracts promise elsewhere: best effort, no ordering.
package udp

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/xerrors"

	"github.com/ZeroXClem/locutus/registry"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/transport"
	"github.com/ZeroXClem/locutus/types"
)

const bufSize = 65000

// wireEnvelope is the datagram layout. OriginAddr lets the receiver learn
// how to reply to peers it has never contacted.
type wireEnvelope struct {
	Origin     ring.PeerKey   `msgpack:"origin"`
	OriginLoc  *ring.Location `msgpack:"origin_loc"`
	OriginAddr string         `msgpack:"origin_addr"`
	Target     ring.PeerKey   `msgpack:"target"`
	Data       []byte         `msgpack:"data"`
}

// Conn is a peer endpoint on a UDP fabric.
//
// - implements transport.Transport
// - implements transport.ConnectionBridge
type Conn struct {
	self     ring.PeerKey
	location *ring.Location
	open     bool
	reg      registry.Registry
	conn     *net.UDPConn
	log      zerolog.Logger

	mu          sync.RWMutex
	addrs       map[ring.PeerKey]*net.UDPAddr
	unsolicited map[ring.PeerKey]bool

	msgs chan types.Message
	done chan struct{}
}

// NewConn binds a UDP socket on address and starts receiving. Peer identity
// and location provisioning are the caller's concern; remote addresses are
// recorded via RegisterPeer or learned from inbound datagrams.
func NewConn(address string, reg registry.Registry, isOpen bool,
	self ring.PeerKey, location *ring.Location, log zerolog.Logger) (*Conn, error) {

	udpAddr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, xerrors.Errorf("failed to resolve address %s: %v", address, err)
	}
	sock, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, xerrors.Errorf("failed to listen on %s: %v", address, err)
	}

	c := &Conn{
		self:        self,
		location:    location,
		open:        isOpen,
		reg:         reg,
		conn:        sock,
		log:         log.With().Stringer("peer", self).Logger(),
		addrs:       make(map[ring.PeerKey]*net.UDPAddr),
		unsolicited: make(map[ring.PeerKey]bool),
		msgs:        make(chan types.Message, 1024),
		done:        make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

// GetAddress returns the bound address. Useful when listening on :0, which
// makes the system pick a free port.
func (c *Conn) GetAddress() string {
	return c.conn.LocalAddr().String()
}

// RegisterPeer records the network address of a known peer.
func (c *Conn) RegisterPeer(peer ring.PeerKey, address string) error {
	udpAddr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return xerrors.Errorf("failed to resolve address %s: %v", address, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addrs[peer] = udpAddr
	return nil
}

// Close shuts the socket down; Recv observes the closure once the buffered
// messages are drained.
func (c *Conn) Close() error {
	return c.conn.Close()
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
	select {
	case msg := <-c.msgs:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		// Drain what arrived before the closure.
		select {
		case msg := <-c.msgs:
			return msg, nil
		default:
			return nil, transport.ErrTransportClosed
		}
	}
}

// Send implements transport.ConnectionBridge.
func (c *Conn) Send(target ring.PeerKeyLocation, msg types.Message) error {
	if target.Location == nil {
		return transport.ErrLocationUnknown
	}

	c.mu.RLock()
	addr, known := c.addrs[target.Peer]
	c.mu.RUnlock()
	if !known {
		return xerrors.Errorf("no known network address for peer %s", target.Peer)
	}

	data, err := c.reg.Marshal(msg)
	if err != nil {
		return xerrors.Errorf("%w: %v", transport.ErrSerialization, err)
	}
	frame, err := msgpack.Marshal(wireEnvelope{
		Origin:     c.self,
		OriginLoc:  c.Location(),
		OriginAddr: c.GetAddress(),
		Target:     target.Peer,
		Data:       data,
	})
	if err != nil {
		return xerrors.Errorf("%w: %v", transport.ErrSerialization, err)
	}

	if _, err := c.conn.WriteTo(frame, addr); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return transport.ErrTransportClosed
		}
		return xerrors.Errorf("failed to send to %s: %v", target.Peer, err)
	}
	return nil
}

// AddConnection implements transport.ConnectionBridge. The address itself
// is recorded via RegisterPeer or learned from inbound datagrams; here we
// only keep the admission bookkeeping.
func (c *Conn) AddConnection(peer ring.PeerKeyLocation, unsolicited bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsolicited[peer.Peer] = unsolicited
}

func (c *Conn) readLoop() {
	defer close(c.done)
	buffer := make([]byte, bufSize)
	for {
		n, _, err := c.conn.ReadFromUDP(buffer)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				c.log.Error().Err(err).Msg("stopped receiving datagrams")
			}
			return
		}

		var env wireEnvelope
		if err := msgpack.Unmarshal(buffer[:n], &env); err != nil {
			c.log.Error().Err(err).Msg("dropping malformed datagram")
			continue
		}
		if env.Target != c.self {
			continue
		}

		if addr, err := net.ResolveUDPAddr("udp4", env.OriginAddr); err == nil {
			c.mu.Lock()
			c.addrs[env.Origin] = addr
			c.mu.Unlock()
		}

		msg, err := c.reg.Unmarshal(env.Data)
		if err != nil {
			c.log.Error().Err(err).
				Stringer("origin", env.Origin).
				Msg("dropping undecodable envelope")
			continue
		}

		select {
		case c.msgs <- msg:
		default:
			c.log.Error().Str("type", msg.Name()).Msg("inbound queue full, dropping message")
		}
	}
}
