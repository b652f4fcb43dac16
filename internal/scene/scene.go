// Package scene holds the obstacle field an episode runs in: closed polygons
// stored as segment loops, flattened into a single indexed segment list, plus
// the start and goal points. A Scene never changes after construction.
package scene

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"online-planner/internal/geometry"
)

var (
	// ErrTooFewVertices is returned for polygons with fewer than 3 vertices
	ErrTooFewVertices = errors.New("polygon needs at least 3 vertices")
	// ErrDegeneratePolygon is returned for polygons with (near) zero area
	ErrDegeneratePolygon = errors.New("polygon has no area")
	// ErrInsideObstacle is returned when start or goal lies inside a polygon
	ErrInsideObstacle = errors.New("point lies inside an obstacle")
)

// Polygon represents an obstacle as a closed loop of directed segments.
// Loops are always counter-clockwise: the interior is on the left of every edge.
type Polygon struct {
	Edges []geometry.Segment `json:"edges"`
}

// NewPolygon builds a closed polygon from its vertices. Repeated consecutive
// vertices (including a repeated closing vertex) are dropped and clockwise
// input is reversed.
func NewPolygon(vertices []geometry.Point) (Polygon, error) {
	vertices = dropRepeated(vertices)
	if len(vertices) < 3 {
		return Polygon{}, fmt.Errorf("%w: got %d", ErrTooFewVertices, len(vertices))
	}

	area := geometry.SignedArea(vertices)
	if area > -geometry.PointTolerance && area < geometry.PointTolerance {
		return Polygon{}, ErrDegeneratePolygon
	}

	ordered := make([]geometry.Point, len(vertices))
	copy(ordered, vertices)
	if area < 0 {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}

	n := len(ordered)
	edges := make([]geometry.Segment, 0, n)
	for i := 0; i < n; i++ {
		edges = append(edges, geometry.NewSegment(ordered[i], ordered[(i+1)%n]))
	}
	return Polygon{Edges: edges}, nil
}

// dropRepeated removes vertices equal to their predecessor, wrapping around,
// so no edge has zero length.
func dropRepeated(vertices []geometry.Point) []geometry.Point {
	out := make([]geometry.Point, 0, len(vertices))
	for _, v := range vertices {
		if len(out) > 0 && out[len(out)-1].Equal(v) {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[len(out)-1].Equal(out[0]) {
		out = out[:len(out)-1]
	}
	return out
}

// Vertices returns the polygon corners in loop order
func (p Polygon) Vertices() []geometry.Point {
	vertices := make([]geometry.Point, 0, len(p.Edges))
	for _, e := range p.Edges {
		vertices = append(vertices, e.Origin)
	}
	return vertices
}

// Closed reports whether every edge starts where the previous one ends
func (p Polygon) Closed() bool {
	n := len(p.Edges)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		if !p.Edges[i].Origin.Equal(p.Edges[(i+n-1)%n].Target) {
			return false
		}
	}
	return true
}

// Contains runs the parity test against this polygon
func (p Polygon) Contains(pt geometry.Point) bool {
	return geometry.PointInPolygon(pt, p.Edges)
}

// Ring returns the polygon as a closed orb ring
func (p Polygon) Ring() orb.Ring {
	return geometry.RingFromSegments(p.Edges)
}

// Scene is an immutable obstacle field with a start and a goal
type Scene struct {
	polygons []Polygon
	segments []geometry.Segment
	start    geometry.Point
	goal     geometry.Point
	bound    orb.Bound
	index    *SpatialIndex
}

// New flattens the polygons into one segment list and indexes it. Start and
// goal must lie outside every polygon.
func New(polygons []Polygon, start, goal geometry.Point) (*Scene, error) {
	s := &Scene{
		polygons: make([]Polygon, len(polygons)),
		start:    start,
		goal:     goal,
		bound:    orb.Bound{Min: geometry.ToOrb(start), Max: geometry.ToOrb(start)},
	}
	copy(s.polygons, polygons)

	s.bound = s.bound.Extend(geometry.ToOrb(goal))
	for i, poly := range s.polygons {
		if !poly.Closed() {
			return nil, fmt.Errorf("polygon %d is not a closed loop", i)
		}
		s.segments = append(s.segments, poly.Edges...)
		s.bound = s.bound.Union(poly.Ring().Bound())
	}

	if s.Contains(start) {
		return nil, fmt.Errorf("start %v: %w", start, ErrInsideObstacle)
	}
	if s.Contains(goal) {
		return nil, fmt.Errorf("goal %v: %w", goal, ErrInsideObstacle)
	}

	s.index = NewSpatialIndex(s.segments)
	return s, nil
}

// Polygons returns the obstacles. The slice must not be modified.
func (s *Scene) Polygons() []Polygon { return s.polygons }

// Segments returns every polygon edge; a segment's index is its position in
// this slice. The slice must not be modified.
func (s *Scene) Segments() []geometry.Segment { return s.segments }

// Segment returns the segment at index i
func (s *Scene) Segment(i int) geometry.Segment { return s.segments[i] }

// Start is the agent spawn point
func (s *Scene) Start() geometry.Point { return s.start }

// Goal is the point the agent searches for
func (s *Scene) Goal() geometry.Point { return s.goal }

// Bound covers every polygon, the start and the goal
func (s *Scene) Bound() orb.Bound { return s.bound }

// Contains reports whether p lies inside any obstacle
func (s *Scene) Contains(p geometry.Point) bool {
	for _, poly := range s.polygons {
		if poly.Contains(p) {
			return true
		}
	}
	return false
}

// SegmentsNear returns, in increasing index order, the segments whose padded
// bounding box meets the bounding box of a and b.
func (s *Scene) SegmentsNear(a, b geometry.Point) []int {
	minX, minY, maxX, maxY := GetRouteBoundingBox(a, b, geometry.PointTolerance)
	return s.index.QueryRegion(minX, minY, maxX, maxY)
}
