package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ZeroXClem/locutus/registry"
	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/types"
)

func TestMarshalUnmarshalIsSelfDescribing(t *testing.T) {
	reg := registry.NewRegistry()
	reg.RegisterMessageCallback(types.PutRequestMessage{}, func(types.Message) error { return nil })

	tx := types.NewTransaction(types.KindPut)
	original := types.PutRequestMessage{
		Transaction: tx,
		StepN:       3,
		Requester: ring.PeerKeyLocation{
			Peer:     ring.NewPeerKey(),
			Location: ring.Location(0.25).Ptr(),
		},
		Key:   ring.Location(0.75),
		Value: []byte("some content"),
		Htl:   7,
	}

	data, err := reg.Marshal(original)
	require.NoError(t, err)

	decoded, err := reg.Unmarshal(data)
	require.NoError(t, err)

	got, ok := decoded.(*types.PutRequestMessage)
	require.True(t, ok)
	require.Equal(t, original.Transaction, got.Transaction)
	require.Equal(t, original.StepN, got.StepN)
	require.Equal(t, original.Key, got.Key)
	require.Equal(t, original.Value, got.Value)
	require.Equal(t, original.Requester.Peer, got.Requester.Peer)
	require.NotNil(t, got.Requester.Location)
	require.InDelta(t, 0.25, float64(*got.Requester.Location), 1e-9)
}

func TestUnmarshalUnknownTypeFails(t *testing.T) {
	sender := registry.NewRegistry()
	receiver := registry.NewRegistry()
	sender.RegisterMessageCallback(types.PutAckMessage{}, func(types.Message) error { return nil })

	data, err := sender.Marshal(types.PutAckMessage{
		Transaction: types.NewTransaction(types.KindPut),
	})
	require.NoError(t, err)

	_, err = receiver.Unmarshal(data)
	require.Error(t, err)
}

func TestProcessMessageDispatchesToCallback(t *testing.T) {
	reg := registry.NewRegistry()

	var seen types.Message
	reg.RegisterMessageCallback(types.GetRequestMessage{}, func(msg types.Message) error {
		seen = msg
		return nil
	})

	msg := &types.GetRequestMessage{Transaction: types.NewTransaction(types.KindGet)}
	require.NoError(t, reg.ProcessMessage(msg))
	require.Same(t, msg, seen)
}

func TestProcessMessageUnregisteredTypeFails(t *testing.T) {
	reg := registry.NewRegistry()
	err := reg.ProcessMessage(&types.GetResponseMessage{})
	require.Error(t, err)
}
