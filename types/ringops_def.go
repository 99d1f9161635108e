package types

import "github.com/ZeroXClem/locutus/ring"

// JoinRequestMessage is sent by a peer that wants to be admitted into the
// ring. It must be addressed to a bootstrap peer whose transport accepts
// unsolicited connections.
//
// - implements types.Message
type JoinRequestMessage struct {
	// Transaction correlates the whole join exchange.
	Transaction Transaction

	// StepN is the position of this message in the exchange.
	StepN uint32

	// Joiner identifies the requesting peer. Its location is nil: a peer
	// has no ring position before admission.
	Joiner ring.PeerKeyLocation

	// MaxNeighbors is the largest initial neighbor set the joiner accepts.
	MaxNeighbors uint32
}

// JoinAcceptMessage is the bootstrap peer's admission reply. It resolves the
// joiner's location and seeds its topology view.
//
// - implements types.Message
type JoinAcceptMessage struct {
	// Transaction correlates the whole join exchange.
	Transaction Transaction

	// StepN is the position of this message in the exchange.
	StepN uint32

	// Acceptor identifies the admitting peer, location resolved.
	Acceptor ring.PeerKeyLocation

	// AssignedLocation is the ring position assigned to the joiner.
	AssignedLocation ring.Location

	// Neighbors is the initial neighbor set for the joiner.
	Neighbors []ring.PeerKeyLocation
}

// JoinRejectMessage is returned when the contacted peer does not accept
// unsolicited joins.
//
// - implements types.Message
type JoinRejectMessage struct {
	// Transaction correlates the whole join exchange.
	Transaction Transaction

	// StepN is the position of this message in the exchange.
	StepN uint32

	// Reason describes why admission was denied.
	Reason string
}

// PutRequestMessage carries a value toward the peers nearest its key.
//
// - implements types.Message
type PutRequestMessage struct {
	// Transaction correlates the whole put exchange.
	Transaction Transaction

	// StepN is the position of this message in the exchange, incremented
	// on every forwarding hop.
	StepN uint32

	// Requester is the peer that initiated the put and expects the ack.
	Requester ring.PeerKeyLocation

	// Key is the ring location the value lives at.
	Key ring.Location

	// Value is the stored content.
	Value []byte

	// Htl is the remaining hop budget. A peer that cannot route closer, or
	// receives the request with an exhausted budget, stores locally.
	Htl uint32
}

// PutAckMessage confirms that a peer stored the value.
//
// - implements types.Message
type PutAckMessage struct {
	// Transaction correlates the whole put exchange.
	Transaction Transaction

	// StepN is the position of this message in the exchange.
	StepN uint32

	// Storer is the peer holding the value.
	Storer ring.PeerKeyLocation

	// Key is the ring location the value was stored at.
	Key ring.Location
}

// GetRequestMessage routes a lookup toward the peer nearest the key.
//
// - implements types.Message
type GetRequestMessage struct {
	// Transaction correlates the whole get exchange.
	Transaction Transaction

	// StepN is the position of this message in the exchange, incremented
	// on every forwarding hop.
	StepN uint32

	// Requester is the peer that initiated the lookup and expects the
	// response.
	Requester ring.PeerKeyLocation

	// Key is the ring location being looked up.
	Key ring.Location

	// Htl is the remaining hop budget; the lookup fails when it runs out
	// before a holder is found.
	Htl uint32
}

// GetResponseMessage terminates a lookup, successfully or not.
//
// - implements types.Message
type GetResponseMessage struct {
	// Transaction correlates the whole get exchange.
	Transaction Transaction

	// StepN is the position of this message in the exchange.
	StepN uint32

	// Responder is the peer answering the lookup.
	Responder ring.PeerKeyLocation

	// Key is the ring location that was looked up.
	Key ring.Location

	// Value is the content, when found.
	Value []byte

	// Found reports whether any peer on the route held the value.
	Found bool
}
