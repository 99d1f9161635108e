package impl

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ZeroXClem/locutus/peer"
	"github.com/ZeroXClem/locutus/peer/impl/operations"
	"github.com/ZeroXClem/locutus/peer/impl/opstate"
	"github.com/ZeroXClem/locutus/ring"
)

// node implements a peer of the ring overlay.
//
// - implements peer.Peer
type node struct {
	conf   *peer.Configuration
	ops    *opstate.Store       // transaction registry, owns the ring view
	engine *operations.Engine   // operation state machines
	daemon *Daemon              // listen loop
}

// NewPeer creates a new peer.
func NewPeer(conf peer.Configuration) peer.Peer {
	if conf.OpTimeout == 0 {
		conf.OpTimeout = 5 * time.Second
	}
	if conf.HopBudget == 0 {
		conf.HopBudget = 10
	}
	if conf.MaxNeighbors == 0 {
		conf.MaxNeighbors = 10
	}

	ops := opstate.NewStore(ring.NewRing(conf.Self, conf.InitialLocation))
	engine := operations.NewEngine(&conf, ops, log.Logger)

	n := node{
		conf:   &conf,
		ops:    ops,
		engine: engine,
	}
	n.daemon = NewDaemon(&conf, log.Logger)

	return &n
}

// Start implements peer.Service
func (n *node) Start() error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	return n.daemon.Start()
}

// Stop implements peer.Service
func (n *node) Stop() error {
	return n.daemon.Stop()
}

// JoinRing implements peer.RingOperations
func (n *node) JoinRing(bootstrap ring.PeerKeyLocation) error {
	return n.engine.StartJoin(context.Background(), bootstrap)
}

// Put implements peer.RingOperations
func (n *node) Put(value []byte) (ring.Location, error) {
	return n.engine.StartPut(context.Background(), value)
}

// Get implements peer.RingOperations
func (n *node) Get(key ring.Location) ([]byte, error) {
	return n.engine.StartGet(context.Background(), key)
}

// Key implements peer.RingOperations
func (n *node) Key() ring.PeerKey {
	return n.conf.Self
}

// Location implements peer.RingOperations
func (n *node) Location() *ring.Location {
	return n.ops.Ring().OwnLocation()
}

// Neighbors implements peer.RingOperations
func (n *node) Neighbors() []ring.PeerKeyLocation {
	return n.ops.Ring().Neighbors()
}
