package cmd

import (
	"time"

	"github.com/ZeroXClem/locutus/peer"
	"github.com/ZeroXClem/locutus/registry"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/storage"
	"github.com/ZeroXClem/locutus/transport"
)

// nodeDefaultConf returns the default configuration of a node
func nodeDefaultConf(bridge transport.ConnectionBridge, trans transport.Transport,
	self ring.PeerKey, location *ring.Location,
	reg registry.Registry, store storage.Store) peer.Configuration {

	var config peer.Configuration
	config.Self = self
	config.InitialLocation = location
	config.Bridge = bridge
	config.Transport = trans
	config.MessageRegistry = reg
	config.Storage = store
	config.OpTimeout = time.Second * 5
	config.HopBudget = 10
	config.MaxNeighbors = 10
	return config
}

// nodeCreateWithConf creates a node with the specified config
func nodeCreateWithConf(f peer.Factory, config peer.Configuration) peer.Peer {
	return f(config)
}
