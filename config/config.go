// Package config loads the standalone runtime's peer configuration from a
// TOML file. Identity, openness, location assignment and the addresses of
// already-known peers are deployment concerns, so they live here and not in
// the protocol core.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/xerrors"
)

// Peer describes a remote peer known at startup.
type Peer struct {
	// Key is the peer's stable identity.
	Key string `toml:"key"`

	// Address is the peer's UDP address.
	Address string `toml:"address"`

	// Location is the peer's ring position, if known.
	Location *float64 `toml:"location"`
}

// Config is the standalone runtime configuration.
type Config struct {
	// Address is the UDP address to bind. Use :0 for a random free port.
	Address string `toml:"address"`

	// Key is this peer's identity. Generated when empty.
	Key string `toml:"key"`

	// IsOpen declares whether this peer accepts unsolicited joins, making
	// it usable as a bootstrap peer.
	IsOpen bool `toml:"is_open"`

	// Location is an assigned ring position for a founding peer. Leave
	// unset for peers that will join through a bootstrap peer.
	Location *float64 `toml:"location"`

	// StoragePath is the value store directory. Empty selects the
	// in-memory store.
	StoragePath string `toml:"storage_path"`

	// OpTimeout bounds how long an initiated operation waits for its
	// terminal message.
	OpTimeout duration `toml:"op_timeout"`

	// HopBudget is the forwarding budget of put and get requests.
	HopBudget uint32 `toml:"hop_budget"`

	// MaxNeighbors caps the initial neighbor set handed to joiners.
	MaxNeighbors int `toml:"max_neighbors"`

	// Peers are the remote peers known at startup.
	Peers []Peer `toml:"peers"`
}

// duration makes time.Duration parseable from TOML strings like "5s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Load reads and validates a configuration file.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, xerrors.Errorf("failed to load config %s: %v", path, err)
	}
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:0"
	}
	for _, p := range cfg.Peers {
		if p.Key == "" || p.Address == "" {
			return Config{}, xerrors.New("every configured peer needs a key and an address")
		}
	}
	return cfg, nil
}
