// Package transport defines the contracts between the operation engine and
// the fabric moving serialized messages between peers. The engine only ever
// talks to a ConnectionBridge; whether envelopes travel over an in-process
// medium or a real network is a property of the concrete implementation.
package transport

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/types"
)

// ErrLocationUnknown is returned by Send when the target peer has no
// resolved ring location. Routing is undefined without a coordinate, so the
// send has no effect on the fabric. Non-retryable until the caller supplies
// a resolved location.
var ErrLocationUnknown = xerrors.New("target peer has no known ring location")

// ErrTransportClosed is returned once the underlying fabric has permanently
// shut down. Unrecoverable for this peer's message path.
var ErrTransportClosed = xerrors.New("transport closed")

// ErrSerialization is returned when a message cannot be encoded for the
// wire. The fabric is left untouched.
var ErrSerialization = xerrors.New("message serialization failed")

// Transport describes a peer endpoint's standing on the fabric.
type Transport interface {
	// IsOpen reports whether this endpoint accepts unsolicited join
	// requests, which makes it eligible as a bootstrap peer.
	IsOpen() bool

	// Location returns the endpoint's current ring position, or nil if the
	// peer has not joined the ring yet.
	Location() *ring.Location
}

// ConnectionBridge is the send/receive contract consumed by the operation
// engine.
type ConnectionBridge interface {
	// Recv suspends the caller until a message addressed to this peer is
	// available, or ctx is done, or the transport permanently fails. There
	// is no "empty" error: an open, quiet fabric simply keeps the caller
	// suspended.
	Recv(ctx context.Context) (types.Message, error)

	// Send serializes msg and forwards it toward target. Fails with
	// ErrLocationUnknown when target.Location is nil, leaving the fabric
	// untouched, and with ErrTransportClosed when the fabric has shut
	// down.
	Send(target ring.PeerKeyLocation, msg types.Message) error

	// AddConnection records that a channel now exists to peer. unsolicited
	// reports that the peer connected without a prior request from us,
	// which matters to join-admission policy. Globally connected fabrics
	// may treat this as a no-op.
	AddConnection(peer ring.PeerKeyLocation, unsolicited bool)
}

// Envelope is the wire unit the fabric moves around. The payload bytes are
// opaque to the transport; only the routing metadata is inspected.
type Envelope struct {
	// Origin is the sending peer.
	Origin ring.PeerKey

	// OriginLoc is the sender's ring position at send time, if any.
	OriginLoc *ring.Location

	// Target is the peer the envelope is addressed to.
	Target ring.PeerKey

	// Data is the serialized message.
	Data []byte
}
