package ring

import (
	"sort"
	"sync"

	"github.com/rs/xid"
)

// PeerKey is the stable identity of a peer, independent from its position in
// the ring. It is small, copyable and usable as a map key.
type PeerKey string

// NewPeerKey generates a fresh globally unique peer identity.
func NewPeerKey() PeerKey {
	return PeerKey(xid.New().String())
}

func (p PeerKey) String() string {
	return string(p)
}

// PeerKeyLocation is a reference to a peer together with its position in the
// ring, if known. Location is nil until the peer completes its ring join;
// callers must treat the nil case explicitly rather than substituting a
// default coordinate.
type PeerKeyLocation struct {
	Peer     PeerKey   `msgpack:"peer"`
	Location *Location `msgpack:"location"`
}

// Ring is one peer's view of the overlay topology: its own location and the
// neighbors it currently knows about. The view is shared by every in-flight
// operation on the peer. Reads take the read lock; structural mutations
// (join, leave, neighbor updates) hold the write lock for the whole mutation.
type Ring struct {
	mu        sync.RWMutex
	self      PeerKey
	location  *Location
	neighbors map[PeerKey]Location
}

// NewRing creates an empty topology view for the given peer. The peer has no
// location until SetOwnLocation is called after a successful join, unless it
// is a founding peer constructed with an assigned position.
func NewRing(self PeerKey, location *Location) *Ring {
	return &Ring{
		self:      self,
		location:  location,
		neighbors: make(map[PeerKey]Location),
	}
}

// Self returns the identity this view belongs to.
func (r *Ring) Self() PeerKey {
	return r.self
}

// OwnLocation returns the peer's ring position, or nil before the join
// completes.
func (r *Ring) OwnLocation() *Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.location == nil {
		return nil
	}
	return r.location.Ptr()
}

// SetOwnLocation installs the position assigned during the ring join.
func (r *Ring) SetOwnLocation(loc Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.location = loc.Ptr()
}

// AddNeighbor records a resolved peer in the topology view. Unresolved peers
// cannot be routed to and are not part of the view.
func (r *Ring) AddNeighbor(pkl PeerKeyLocation) {
	if pkl.Location == nil || pkl.Peer == r.self {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.neighbors[pkl.Peer] = *pkl.Location
}

// RemoveNeighbor drops a departed peer from the view.
func (r *Ring) RemoveNeighbor(peer PeerKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.neighbors, peer)
}

// Connections returns the number of known neighbors.
func (r *Ring) Connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.neighbors)
}

// Neighbors returns a copy of the current neighbor set, in no particular
// order.
func (r *Ring) Neighbors() []PeerKeyLocation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PeerKeyLocation, 0, len(r.neighbors))
	for peer, loc := range r.neighbors {
		out = append(out, PeerKeyLocation{Peer: peer, Location: loc.Ptr()})
	}
	return out
}

// NearestPeers returns up to n known neighbors ordered by cyclic distance to
// the target location, nearest first.
func (r *Ring) NearestPeers(target Location, n int) []PeerKeyLocation {
	candidates := r.Neighbors()
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Location.Distance(target) < candidates[j].Location.Distance(target)
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}
