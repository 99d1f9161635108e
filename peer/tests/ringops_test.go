package tests

import (
	"testing"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/ZeroXClem/locutus/peer"
	"github.com/ZeroXClem/locutus/peer/impl"
	"github.com/ZeroXClem/locutus/peer/impl/operations"
	"github.com/ZeroXClem/locutus/registry"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/storage"
	"github.com/ZeroXClem/locutus/transport/inmem"
)

// newSimPeer attaches a fresh peer to the fabric. Founding peers get a
// location at construction; joiners start unresolved and obtain one through
// JoinRing.
func newSimPeer(t *testing.T, fabric *inmem.Fabric, isOpen bool,
	location *ring.Location) (peer.Peer, ring.PeerKeyLocation) {

	t.Helper()

	self := ring.NewPeerKey()
	reg := registry.NewRegistry()
	conn := inmem.NewConn(fabric, reg, isOpen, self, location, zlog.Logger)

	conf := peer.Configuration{
		Self:            self,
		InitialLocation: location,
		Bridge:          conn,
		Transport:       conn,
		MessageRegistry: reg,
		Storage:         storage.NewInMem(),
		OpTimeout:       2 * time.Second,
	}
	node := impl.NewPeer(conf)
	require.NoError(t, node.Start())
	t.Cleanup(func() { require.NoError(t, node.Stop()) })

	return node, ring.PeerKeyLocation{Peer: self, Location: location}
}

func TestJoinRingResolvesLocationAndNeighbors(t *testing.T) {
	fabric := inmem.NewFabric()
	defer fabric.Close()

	founder, bootstrap := newSimPeer(t, fabric, true, ring.RandomLocation().Ptr())
	joiner, _ := newSimPeer(t, fabric, false, nil)

	require.Nil(t, joiner.Location())
	require.NoError(t, joiner.JoinRing(bootstrap))

	// The joiner now occupies a position and knows its acceptor.
	require.NotNil(t, joiner.Location())
	require.NotEmpty(t, joiner.Neighbors())

	// The acceptor learned about the joiner as well.
	neighbors := founder.Neighbors()
	require.Len(t, neighbors, 1)
	require.Equal(t, joiner.Key(), neighbors[0].Peer)
}

func TestJoinThroughClosedPeerIsRejected(t *testing.T) {
	fabric := inmem.NewFabric()
	defer fabric.Close()

	_, bootstrap := newSimPeer(t, fabric, false, ring.RandomLocation().Ptr())
	joiner, _ := newSimPeer(t, fabric, false, nil)

	err := joiner.JoinRing(bootstrap)
	require.Error(t, err)
	require.Nil(t, joiner.Location())
}

func TestJoinSeveralPeers(t *testing.T) {
	fabric := inmem.NewFabric()
	defer fabric.Close()

	founder, bootstrap := newSimPeer(t, fabric, true, ring.RandomLocation().Ptr())

	const nbJoiners = 4
	for i := 0; i < nbJoiners; i++ {
		joiner, _ := newSimPeer(t, fabric, false, nil)
		require.NoError(t, joiner.JoinRing(bootstrap))
		require.NotNil(t, joiner.Location())
	}

	require.Len(t, founder.Neighbors(), nbJoiners)
}

func TestPutThenGetAcrossPeers(t *testing.T) {
	fabric := inmem.NewFabric()
	defer fabric.Close()

	founder, bootstrap := newSimPeer(t, fabric, true, ring.RandomLocation().Ptr())
	joiner, _ := newSimPeer(t, fabric, false, nil)
	require.NoError(t, joiner.JoinRing(bootstrap))

	value := []byte("decentralized and immutable")
	key, err := joiner.Put(value)
	require.NoError(t, err)
	require.Equal(t, operations.ContentLocation(value), key)

	// Whichever of the two ended up holding the value, both can reach it.
	got, err := founder.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, got)

	got, err = joiner.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestGetMissingValue(t *testing.T) {
	fabric := inmem.NewFabric()
	defer fabric.Close()

	_, bootstrap := newSimPeer(t, fabric, true, ring.RandomLocation().Ptr())
	joiner, _ := newSimPeer(t, fabric, false, nil)
	require.NoError(t, joiner.JoinRing(bootstrap))

	_, err := joiner.Get(ring.RandomLocation())
	require.ErrorIs(t, err, operations.ErrNotFound)
}

func TestPutBeforeJoinFails(t *testing.T) {
	fabric := inmem.NewFabric()
	defer fabric.Close()

	loner, _ := newSimPeer(t, fabric, false, nil)
	_, err := loner.Put([]byte("premature"))
	require.Error(t, err)
}
