package impl

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ZeroXClem/locutus/peer"
	"github.com/ZeroXClem/locutus/transport"
)

// Daemon runs the peer's listen loop: it receives messages from the
// connection bridge and hands each one to the registered callback for its
// type, which advances the owning operation.
type Daemon struct {
	conf   *peer.Configuration
	log    zerolog.Logger
	cancel context.CancelFunc
}

// NewDaemon creates the listen daemon for a peer.
func NewDaemon(conf *peer.Configuration, log zerolog.Logger) *Daemon {
	return &Daemon{
		conf: conf,
		log:  log.With().Stringer("peer", conf.Self).Logger(),
	}
}

// Start launches the listen loop.
func (d *Daemon) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go d.listenDaemon(ctx)
	return nil
}

// Stop terminates the listen loop. Messages already being processed run to
// completion.
func (d *Daemon) Stop() error {
	if d.cancel != nil {
		d.cancel()
	}
	return nil
}

func (d *Daemon) listenDaemon(ctx context.Context) {
	for {
		msg, err := d.conf.Bridge.Recv(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case errors.Is(err, transport.ErrTransportClosed):
			// Unrecoverable for this peer's inbound path; the process
			// itself keeps running.
			d.log.Error().Msg("listen daemon stopped: transport closed")
			return
		case err != nil:
			d.log.Error().Err(err).Msg("listen daemon stopped")
			return
		}

		go func() {
			if err := d.conf.MessageRegistry.ProcessMessage(msg); err != nil {
				d.log.Error().Err(err).
					Str("type", msg.Name()).
					Msg("failed to process message")
			}
		}()
	}
}
