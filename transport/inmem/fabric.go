// Package inmem provides the in-process reference fabric: an unbounded,
// unordered, best-effort broadcast medium shared by every simulated peer.
// It is the normative implementation of the transport contracts and the
// harness every protocol test runs against.
package inmem

import (
	"sync"

	"github.com/ZeroXClem/locutus/ring"
	"github.com/ZeroXClem/locutus/transport"
)

// fabricCapacity bounds a per-peer mailbox as an invariant assertion only.
// The medium is assumed unbounded, so this branch is structurally
// unreachable; switching to a bounded medium must revisit it deliberately.
const fabricCapacity = 1 << 20

// Fabric is the shared medium every simulated peer attaches to. It is
// constructed once per test harness and passed by reference to each peer's
// connection; it is never a process-global.
//
// Delivery is broadcast-then-filter: every attached mailbox receives every
// envelope, and each peer's filter loop keeps only the envelopes addressed
// to it. That wastes O(peers) reads per message, which is acceptable at
// simulation scale.
type Fabric struct {
	mu        sync.Mutex
	mailboxes map[ring.PeerKey]*mailbox
	closed    bool
}

// NewFabric creates an empty shared medium.
func NewFabric() *Fabric {
	return &Fabric{mailboxes: make(map[ring.PeerKey]*mailbox)}
}

// attach registers a peer on the medium and returns its private mailbox.
func (f *Fabric) attach(peer ring.PeerKey) *mailbox {
	f.mu.Lock()
	defer f.mu.Unlock()
	mb := &mailbox{closed: f.closed}
	f.mailboxes[peer] = mb
	return mb
}

// broadcast places an envelope on every attached mailbox.
func (f *Fabric) broadcast(env transport.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return transport.ErrTransportClosed
	}
	for _, mb := range f.mailboxes {
		mb.push(env)
	}
	return nil
}

// Close permanently shuts the medium down. Peers drain what is already in
// flight and then observe the closure.
func (f *Fabric) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for _, mb := range f.mailboxes {
		mb.close()
	}
}

// mailbox is one peer's unordered view of the medium.
type mailbox struct {
	mu     sync.Mutex
	queue  []transport.Envelope
	closed bool
}

func (m *mailbox) push(env transport.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if len(m.queue) >= fabricCapacity {
		// The medium is assumed unbounded; reaching this means the
		// assumption no longer holds and continuing would hide it.
		panic("inmem: fabric mailbox overflow on an assumed-unbounded medium")
	}
	m.queue = append(m.queue, env)
}

// tryRecv pops one envelope without blocking. ok is false when the mailbox
// is momentarily contended or empty; the error reports permanent closure
// once everything in flight has been drained.
func (m *mailbox) tryRecv() (transport.Envelope, bool, error) {
	if !m.mu.TryLock() {
		return transport.Envelope{}, false, nil
	}
	defer m.mu.Unlock()
	if n := len(m.queue); n > 0 {
		env := m.queue[n-1]
		m.queue = m.queue[:n-1]
		return env, true, nil
	}
	if m.closed {
		return transport.Envelope{}, false, transport.ErrTransportClosed
	}
	return transport.Envelope{}, false, nil
}

func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
