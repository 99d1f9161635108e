package ring

import (
	"fmt"
	"math"
	"math/rand"
)

// Location is a position in the ring's cyclic coordinate space [0.0, 1.0).
// Both peers and stored contents are mapped onto this space, and routing
// always moves toward the peer with the smallest cyclic distance to the
// target location. A peer that has not yet joined the ring has no Location;
// absence is modeled with a nil *Location, never with a zero value.
type Location float64

// NewLocation returns a validated Location, or an error if pos falls
// outside the ring space.
func NewLocation(pos float64) (Location, error) {
	if pos < 0.0 || pos >= 1.0 {
		return 0, fmt.Errorf("location %f outside the ring space [0.0, 1.0)", pos)
	}
	return Location(pos), nil
}

// RandomLocation draws a uniform position in the ring space. Used by open
// peers when assigning a location to a joining peer.
func RandomLocation() Location {
	return Location(rand.Float64())
}

// Distance computes the cyclic distance between two locations, always in
// [0.0, 0.5]. The ring wraps, so the distance between 0.95 and 0.05 is 0.1.
func (l Location) Distance(other Location) float64 {
	d := math.Abs(float64(l) - float64(other))
	if d > 0.5 {
		return 1.0 - d
	}
	return d
}

func (l Location) String() string {
	return fmt.Sprintf("%.6f", float64(l))
}

// Ptr returns a pointer copy, convenient when filling PeerKeyLocation values.
func (l Location) Ptr() *Location {
	cp := l
	return &cp
}
