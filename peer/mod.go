package peer

import (
	"time"

	"github.com/ZeroXClem/locutus/registry"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/storage"
	"github.com/ZeroXClem/locutus/transport"
)

// Peer defines the interface of one peer in the ring overlay. It embeds all
// the interfaces that will have to be implemented.
type Peer interface {
	Service
	RingOperations
}

// Factory is the type of function we are using to create new instances of
// peers.
type Factory func(Configuration) Peer

// Service describes the lifetime of a peer's background machinery.
type Service interface {
	// Start starts the peer's listen loop. Must be called before any ring
	// operation.
	Start() error

	// Stop stops the listen loop. The fabric connection itself lives until
	// the fabric closes.
	Stop() error
}

// RingOperations describes the distributed operations a peer can initiate
// and the read access to its ring state.
type RingOperations interface {
	// JoinRing runs an admission exchange against the given bootstrap
	// peer, which must accept unsolicited joins. On success the peer has a
	// resolved location and an initial neighbor set.
	JoinRing(bootstrap ring.PeerKeyLocation) error

	// Put stores value on the peers nearest its content location and
	// returns that location as the retrieval key.
	Put(value []byte) (ring.Location, error)

	// Get retrieves the value stored at key, routing the lookup toward
	// the nearest known peers.
	Get(key ring.Location) ([]byte, error)

	// Key returns the peer's stable identity.
	Key() ring.PeerKey

	// Location returns the peer's ring position, nil before a completed
	// join.
	Location() *ring.Location

	// Neighbors returns the peer's current topology view.
	Neighbors() []ring.PeerKeyLocation
}

// Configuration is the struct that will contain the configuration argument
// when creating a peer.
type Configuration struct {
	// Self is the peer's identity on the fabric.
	Self ring.PeerKey

	// InitialLocation is a founding peer's assigned position. nil for
	// peers that will obtain one by joining the ring.
	InitialLocation *ring.Location

	// Bridge carries the peer's messages. Its concrete type decides
	// whether the peer runs on the in-memory fabric or a real network.
	Bridge transport.ConnectionBridge

	// Transport describes this endpoint's openness and position on the
	// fabric. Usually the same object as Bridge.
	Transport transport.Transport

	// MessageRegistry encodes, decodes and dispatches protocol messages.
	MessageRegistry registry.Registry

	// Storage is the peer's local value store.
	Storage storage.Store

	// OpTimeout is how long an initiated operation waits for its terminal
	// message before being canceled.
	// Default: 5s
	OpTimeout time.Duration

	// HopBudget is the number of forwarding hops a put or get request may
	// traverse before it must terminate where it stands.
	// Default: 10
	HopBudget uint32

	// MaxNeighbors caps the initial neighbor set handed to a joining peer.
	// Default: 10
	MaxNeighbors int
}
