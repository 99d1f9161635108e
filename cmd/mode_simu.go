package cmd

import (
	"log"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ZeroXClem/locutus/peer"
	"github.com/ZeroXClem/locutus/peer/impl"
	"github.com/ZeroXClem/locutus/registry"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/storage"
	"github.com/ZeroXClem/locutus/transport/inmem"
)

// SimuUserInterface provides a command line interface of the program on a
// simulated in-process fabric. It exposes only one peer, but there are
// nbNodes of peers running behind: the first is an open founding peer the
// others join through.
func SimuUserInterface(nbNodes int) {
	fabric := inmem.NewFabric()
	defer fabric.Close()

	nodes := make([]peer.Peer, nbNodes)
	founderKey := ring.NewPeerKey()
	founderLoc := ring.RandomLocation()

	for i := 0; i < nbNodes; i++ {
		self := founderKey
		var location *ring.Location
		isOpen := i == 0
		if i == 0 {
			location = founderLoc.Ptr()
		} else {
			self = ring.NewPeerKey()
		}

		reg := registry.NewRegistry()
		conn := inmem.NewConn(fabric, reg, isOpen, self, location, zlog.Logger)
		conf := nodeDefaultConf(conn, conn, self, location, reg, storage.NewInMem())

		node := nodeCreateWithConf(impl.NewPeer, conf)
		if err := node.Start(); err != nil {
			log.Fatalf("failed to start node %d: %v", i, err)
		}
		defer node.Stop()
		nodes[i] = node
	}
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)

	bootstrap := ring.PeerKeyLocation{Peer: founderKey, Location: founderLoc.Ptr()}
	for i := 1; i < nbNodes; i++ {
		if err := nodes[i].JoinRing(bootstrap); err != nil {
			log.Fatalf("failed to join the ring: %v", err)
		}
	}

	color.HiCyan("simulated ring with %d peers, all joined", nbNodes)
	for _, node := range nodes {
		showRingView(node)
	}

	// The exposed peer is the last joiner, the one with the freshest view.
	postJoin(nodes[nbNodes-1])
}
