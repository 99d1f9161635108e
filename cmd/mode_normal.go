package cmd

import (
	"log"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ZeroXClem/locutus/config"
	"github.com/ZeroXClem/locutus/peer/impl"
	"github.com/ZeroXClem/locutus/registry"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/storage"
	"github.com/ZeroXClem/locutus/transport/udp"
)

// UserInterface runs one peer over UDP according to the given configuration
// file and drops into the interactive prompt.
func UserInterface(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	self := ring.PeerKey(cfg.Key)
	if cfg.Key == "" {
		self = ring.NewPeerKey()
	}
	var location *ring.Location
	if cfg.Location != nil {
		loc, err := ring.NewLocation(*cfg.Location)
		if err != nil {
			log.Fatalf("invalid location in configuration: %v", err)
		}
		location = loc.Ptr()
	}

	reg := registry.NewRegistry()
	conn, err := udp.NewConn(cfg.Address, reg, cfg.IsOpen, self, location, zlog.Logger)
	if err != nil {
		log.Fatalf("failed to bind transport: %v", err)
	}
	defer conn.Close()

	var store storage.Store
	if cfg.StoragePath != "" {
		store, err = storage.NewBadger(cfg.StoragePath)
		if err != nil {
			log.Fatalf("failed to open value store: %v", err)
		}
	} else {
		store = storage.NewInMem()
	}
	defer store.Close()

	var bootstraps []ring.PeerKeyLocation
	for _, remote := range cfg.Peers {
		key := ring.PeerKey(remote.Key)
		if err := conn.RegisterPeer(key, remote.Address); err != nil {
			log.Fatalf("failed to register peer %s: %v", remote.Key, err)
		}
		if remote.Location != nil {
			loc, err := ring.NewLocation(*remote.Location)
			if err != nil {
				log.Fatalf("invalid location for peer %s: %v", remote.Key, err)
			}
			bootstraps = append(bootstraps, ring.PeerKeyLocation{Peer: key, Location: loc.Ptr()})
		}
	}

	conf := nodeDefaultConf(conn, conn, self, location, reg, store)
	if cfg.OpTimeout.Duration != 0 {
		conf.OpTimeout = cfg.OpTimeout.Duration
	}
	if cfg.HopBudget != 0 {
		conf.HopBudget = cfg.HopBudget
	}
	if cfg.MaxNeighbors != 0 {
		conf.MaxNeighbors = cfg.MaxNeighbors
	}

	node := nodeCreateWithConf(impl.NewPeer, conf)
	if err := node.Start(); err != nil {
		log.Fatalf("failed to start node: %v", err)
	}
	defer node.Stop()
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)

	color.HiCyan("peer %s listening on %s", self, conn.GetAddress())

	if location != nil || preJoin(node, bootstraps) {
		postJoin(node)
	}
}
