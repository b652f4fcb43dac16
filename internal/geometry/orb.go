package geometry

import "github.com/paulmach/orb"

// ToOrb converts a point to its orb representation
func ToOrb(p Point) orb.Point {
	return orb.Point{p.X, p.Y}
}

// FromOrb converts an orb point back
func FromOrb(p orb.Point) Point {
	return Point{X: p.X(), Y: p.Y()}
}

// RingFromSegments returns the closed orb ring traced by a segment loop.
// The first vertex is repeated at the end, as GeoJSON expects.
func RingFromSegments(loop []Segment) orb.Ring {
	ring := make(orb.Ring, 0, len(loop)+1)
	for _, s := range loop {
		ring = append(ring, ToOrb(s.Origin))
	}
	if len(loop) > 0 {
		ring = append(ring, ToOrb(loop[0].Origin))
	}
	return ring
}

// VerticesFromRing drops the closing duplicate of an orb ring, if any
func VerticesFromRing(ring orb.Ring) []Point {
	n := len(ring)
	if n > 1 && FromOrb(ring[0]).Equal(FromOrb(ring[n-1])) {
		n--
	}
	vertices := make([]Point, 0, n)
	for _, p := range ring[:n] {
		vertices = append(vertices, FromOrb(p))
	}
	return vertices
}
