// Package geometry holds the planar primitives shared by the scene, the
// visibility engine and the search strategies: points, directed segments,
// parametric ray/segment intersection and the parity point-in-polygon test.
//
// All approximate comparisons go through the tolerances below. They are scaled
// for coordinates in the range of a few thousand units.
package geometry

import (
	"fmt"
	"math"
)

const (
	// PointTolerance is the per-axis distance under which two points are equal.
	// It is also the minimum distance along a ray for a hit to count as ahead.
	PointTolerance = 1e-3

	// ParamTolerance applies to the segment parameter t2 (0 = origin, 1 = target).
	ParamTolerance = 1e-4

	// ParallelTolerance bounds the sine of the angle between two directions
	// below which they are treated as parallel.
	ParallelTolerance = 1e-9

	// AngleTolerance is used for inclusive wedge boundaries, in radians.
	AngleTolerance = 1e-6

	// GoalTolerance is the distance under which the agent has reached the goal.
	GoalTolerance = 1e-2

	// KeyPrecision is the number of decimals kept when a point is quantized.
	KeyPrecision = 3
)

// Point is a 2D coordinate. It doubles as a direction vector.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + v
func (p Point) Add(v Point) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

// Sub returns p - v
func (p Point) Sub(v Point) Point {
	return Point{X: p.X - v.X, Y: p.Y - v.Y}
}

// Scale multiplies both components by f
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Neg returns the opposite vector
func (p Point) Neg() Point {
	return Point{X: -p.X, Y: -p.Y}
}

// Cross returns the z component of the 3D cross product
func (p Point) Cross(v Point) float64 {
	return p.X*v.Y - p.Y*v.X
}

// Dot returns the scalar product
func (p Point) Dot(v Point) float64 {
	return p.X*v.X + p.Y*v.Y
}

// Len returns the Euclidean norm
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Angle returns the polar angle of p seen as a vector, in (-π, π]
func (p Point) Angle() float64 {
	return math.Atan2(p.Y, p.X)
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	return p.Sub(other).Len()
}

// Equal reports whether two points coincide within PointTolerance on both axes
func (p Point) Equal(other Point) bool {
	return math.Abs(p.X-other.X) <= PointTolerance && math.Abs(p.Y-other.Y) <= PointTolerance
}

// IsFinite reports whether neither coordinate is NaN or infinite
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// Key is a quantized point, usable as a map key
type Key struct {
	X, Y int64
}

// Key rounds p to KeyPrecision decimals
func (p Point) Key() Key {
	scale := math.Pow10(KeyPrecision)
	return Key{
		X: int64(math.Round(p.X * scale)),
		Y: int64(math.Round(p.Y * scale)),
	}
}

// Segment is a directed edge. Target == Origin + Direction always holds.
type Segment struct {
	Origin    Point `json:"origin"`
	Direction Point `json:"direction"`
	Target    Point `json:"target"`
}

// NewSegment builds the directed segment from origin to target
func NewSegment(origin, target Point) Segment {
	return Segment{
		Origin:    origin,
		Direction: target.Sub(origin),
		Target:    target,
	}
}

// At returns the point at parameter t along the segment
func (s Segment) At(t float64) Point {
	return s.Origin.Add(s.Direction.Scale(t))
}

// Kind classifies the outcome of Intersect
type Kind int

const (
	// Hit means the supporting lines meet at a unique point
	Hit Kind = iota
	// Parallel means the directions are parallel (collinear or disjoint)
	Parallel
	// Degenerate means the ray or the segment has no length
	Degenerate
)

func (k Kind) String() string {
	switch k {
	case Hit:
		return "hit"
	case Parallel:
		return "parallel"
	case Degenerate:
		return "degenerate"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Intersect solves origin + t1*dir = seg.Origin + t2*seg.Direction.
//
// t1 is the progress along dir (1 reaches origin+dir), t2 the position along
// the segment. Neither range is checked here; callers decide what counts.
// When kind is not Hit, t1 and t2 are zero and carry no meaning.
func Intersect(origin, dir Point, seg Segment) (t1, t2 float64, kind Kind) {
	dirLen := dir.Len()
	segLen := seg.Direction.Len()
	if dirLen <= ParallelTolerance || segLen <= ParallelTolerance {
		return 0, 0, Degenerate
	}

	rxs := dir.Cross(seg.Direction)
	if math.Abs(rxs) <= ParallelTolerance*dirLen*segLen {
		return 0, 0, Parallel
	}

	qp := seg.Origin.Sub(origin)
	t1 = qp.Cross(seg.Direction) / rxs
	t2 = qp.Cross(dir) / rxs
	return t1, t2, Hit
}

// Collinear reports whether p lies on the infinite line through origin with
// direction dir, within PointTolerance.
func Collinear(origin, dir, p Point) bool {
	dirLen := dir.Len()
	if dirLen == 0 {
		return false
	}
	return math.Abs(dir.Cross(p.Sub(origin)))/dirLen <= PointTolerance
}

// PointInPolygon checks if a point is inside a closed loop using ray casting.
//
// The ray goes straight up. An edge is counted when it straddles the vertical
// line through p (half-open on X, so a vertex shared by two edges is counted
// once) and the crossing lies at t1 >= 0.
func PointInPolygon(p Point, loop []Segment) bool {
	if len(loop) < 3 {
		return false
	}

	up := Point{X: 0, Y: 1}
	count := 0
	for _, edge := range loop {
		if (edge.Origin.X > p.X) == (edge.Target.X > p.X) {
			continue
		}
		t1, _, kind := Intersect(p, up, edge)
		if kind != Hit {
			continue
		}
		if t1 >= 0 {
			count++
		}
	}

	return count%2 == 1
}

// CCWDelta returns the counter-clockwise sweep from angle `from` to angle
// `to`, normalized into [0, 2π).
func CCWDelta(from, to float64) float64 {
	d := math.Mod(to-from, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d
}

// SignedArea returns the shoelace area of the vertex loop; positive when the
// loop is counter-clockwise.
func SignedArea(vertices []Point) float64 {
	n := len(vertices)
	area := 0.0
	for i := 0; i < n; i++ {
		area += vertices[i].Cross(vertices[(i+1)%n])
	}
	return area / 2
}
