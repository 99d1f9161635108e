package udp_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ZeroXClem/locutus/registry"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/transport"
	"github.com/ZeroXClem/locutus/transport/udp"
	"github.com/ZeroXClem/locutus/types"
)

func newTestRegistry() registry.Registry {
	reg := registry.NewRegistry()
	reg.RegisterMessageCallback(types.GetRequestMessage{}, func(types.Message) error { return nil })
	return reg
}

func newUDPPeer(t *testing.T, reg registry.Registry) (ring.PeerKey, *udp.Conn) {
	t.Helper()
	key := ring.NewPeerKey()
	conn, err := udp.NewConn("127.0.0.1:0", reg, true, key, ring.RandomLocation().Ptr(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return key, conn
}

func TestUDPRoundTrip(t *testing.T) {
	reg := newTestRegistry()
	senderKey, sender := newUDPPeer(t, reg)
	receiverKey, receiver := newUDPPeer(t, reg)

	require.NoError(t, sender.RegisterPeer(receiverKey, receiver.GetAddress()))

	sent := types.GetRequestMessage{
		Transaction: types.NewTransaction(types.KindGet),
		Requester:   ring.PeerKeyLocation{Peer: senderKey, Location: ring.RandomLocation().Ptr()},
		Key:         ring.Location(0.5),
		Htl:         3,
	}
	target := ring.PeerKeyLocation{Peer: receiverKey, Location: ring.RandomLocation().Ptr()}
	require.NoError(t, sender.Send(target, sent))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := receiver.Recv(ctx)
	require.NoError(t, err)

	got, ok := msg.(*types.GetRequestMessage)
	require.True(t, ok)
	require.Equal(t, sent.Transaction, got.Transaction)
	require.Equal(t, sent.Key, got.Key)
}

func TestUDPLearnsReplyAddress(t *testing.T) {
	reg := newTestRegistry()
	senderKey, sender := newUDPPeer(t, reg)
	receiverKey, receiver := newUDPPeer(t, reg)

	require.NoError(t, sender.RegisterPeer(receiverKey, receiver.GetAddress()))

	out := types.GetRequestMessage{
		Transaction: types.NewTransaction(types.KindGet),
		Requester:   ring.PeerKeyLocation{Peer: senderKey, Location: ring.RandomLocation().Ptr()},
	}
	target := ring.PeerKeyLocation{Peer: receiverKey, Location: ring.RandomLocation().Ptr()}
	require.NoError(t, sender.Send(target, out))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := receiver.Recv(ctx)
	require.NoError(t, err)

	// The receiver never registered the sender, yet it can reply: the
	// inbound datagram carried the origin address.
	back := ring.PeerKeyLocation{Peer: senderKey, Location: ring.RandomLocation().Ptr()}
	require.NoError(t, receiver.Send(back, out))

	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	_, err = sender.Recv(ctx2)
	require.NoError(t, err)
}

func TestUDPSendToUnresolvedLocationFails(t *testing.T) {
	reg := newTestRegistry()
	_, sender := newUDPPeer(t, reg)
	receiverKey, _ := newUDPPeer(t, reg)

	err := sender.Send(
		ring.PeerKeyLocation{Peer: receiverKey, Location: nil},
		types.GetRequestMessage{Transaction: types.NewTransaction(types.KindGet)},
	)
	require.ErrorIs(t, err, transport.ErrLocationUnknown)
}

func TestUDPSendToUnknownPeerFails(t *testing.T) {
	reg := newTestRegistry()
	_, sender := newUDPPeer(t, reg)

	err := sender.Send(
		ring.PeerKeyLocation{Peer: ring.NewPeerKey(), Location: ring.RandomLocation().Ptr()},
		types.GetRequestMessage{Transaction: types.NewTransaction(types.KindGet)},
	)
	require.Error(t, err)
}
