// Package visibility computes which polygon vertices, and the goal, an agent
// can reach from its position in one straight move.
//
// A candidate is cast as a ray from the agent. The first surface the ray meets
// decides the outcome: a polygon vertex is visible, a mid-edge hit occludes.
// When the agent stands on a vertex, rays into its own polygon are rejected
// up front by the standing-wall wedge test.
package visibility

import (
	"math"

	"online-planner/internal/geometry"
	"online-planner/internal/scene"
)

// Walls identifies the two edges meeting at the vertex the agent stands on.
// Out starts at the vertex, In ends at it.
type Walls struct {
	Out int `json:"out"`
	In  int `json:"in"`
}

// WallsAt returns the standing walls for pos, or nil when pos is not a shared
// vertex of exactly one incoming and one outgoing edge.
func WallsAt(pos geometry.Point, s *scene.Scene) *Walls {
	out, in := -1, -1
	matches := 0
	for i, seg := range s.Segments() {
		originMatch := seg.Origin.Equal(pos)
		targetMatch := seg.Target.Equal(pos)
		if !originMatch && !targetMatch {
			continue
		}
		matches++
		if originMatch && !targetMatch {
			out = i
		}
		if targetMatch && !originMatch {
			in = i
		}
	}
	if matches != 2 || out < 0 || in < 0 {
		return nil
	}
	return &Walls{Out: out, In: in}
}

// Legal reports whether a ray with direction dir may leave the agent's vertex.
//
// Polygons are counter-clockwise, so the solid wedge at the vertex sweeps
// counter-clockwise from Out to the reversed In. The legal wedge is the rest:
// from reversed In counter-clockwise to Out, both boundaries included.
func Legal(dir geometry.Point, walls *Walls, s *scene.Scene) bool {
	if walls == nil {
		return true
	}
	out := s.Segment(walls.Out).Direction.Angle()
	back := s.Segment(walls.In).Direction.Neg().Angle()
	a := dir.Angle()

	span := geometry.CCWDelta(back, out)
	d := geometry.CCWDelta(back, a)
	if d <= span+geometry.AngleTolerance {
		return true
	}
	// just clockwise of the reversed In edge
	return 2*math.Pi-d <= geometry.AngleTolerance
}

// hit is the nearest surface found along a ray
type hit struct {
	t1       float64
	point    geometry.Point
	endpoint bool
}

// VisiblePoints returns every point reachable from pos in one straight move:
// the goal when unobstructed, and polygon vertices. The order is
// deterministic (goal first, then vertices in segment order) and points are
// unique within PointTolerance.
func VisiblePoints(pos geometry.Point, walls *Walls, s *scene.Scene) []geometry.Point {
	visible := pointSet{exclude: pos}

	visible.merge(castTo(pos, s.Goal(), true, walls, s))
	for _, seg := range s.Segments() {
		visible.merge(castTo(pos, seg.Origin, false, walls, s))
	}

	return visible.points
}

// castTo resolves the ray from pos toward target and returns what it reveals
func castTo(pos, target geometry.Point, isGoal bool, walls *Walls, s *scene.Scene) []geometry.Point {
	if target.Equal(pos) {
		return nil
	}
	dir := target.Sub(pos)
	if !Legal(dir, walls, s) {
		return nil
	}

	dirLen := dir.Len()
	minT := geometry.PointTolerance / dirLen
	maxT := 1 + geometry.ParamTolerance

	var (
		nearest  hit
		found    bool
		parallel []int
	)
	if isGoal {
		nearest = hit{t1: 1, point: target, endpoint: true}
		found = true
	}

	for _, i := range s.SegmentsNear(pos, target) {
		seg := s.Segment(i)
		t1, t2, kind := geometry.Intersect(pos, dir, seg)
		switch kind {
		case geometry.Parallel:
			parallel = append(parallel, i)
			continue
		case geometry.Degenerate:
			continue
		}

		if t1 <= minT || t1 > maxT {
			continue
		}
		if t2 < -geometry.ParamTolerance || t2 > 1+geometry.ParamTolerance {
			continue
		}
		if found && t1 >= nearest.t1 {
			continue
		}

		h := hit{t1: t1}
		switch {
		case t2 <= geometry.ParamTolerance:
			h.point, h.endpoint = seg.Origin, true
		case t2 >= 1-geometry.ParamTolerance:
			h.point, h.endpoint = seg.Target, true
		default:
			h.point = seg.At(t2)
		}
		nearest, found = h, true
	}

	var revealed []geometry.Point
	if found && nearest.endpoint {
		revealed = append(revealed, nearest.point)
	}

	// Walls lying along the ray: their endpoints before the first blocking
	// surface are reachable by sliding along the wall.
	limit := maxT + geometry.ParamTolerance
	if found {
		limit = nearest.t1
	}
	for _, i := range parallel {
		seg := s.Segment(i)
		if !geometry.Collinear(pos, dir, seg.Origin) || !geometry.Collinear(pos, dir, seg.Target) {
			continue
		}
		for _, end := range [2]geometry.Point{seg.Origin, seg.Target} {
			if end.Equal(pos) {
				continue
			}
			along := end.Sub(pos).Dot(dir) / (dirLen * dirLen)
			if along > minT && along < limit-geometry.ParamTolerance {
				revealed = append(revealed, end)
			}
		}
	}

	return revealed
}

// pointSet keeps insertion order and drops near-duplicates
type pointSet struct {
	exclude geometry.Point
	points  []geometry.Point
}

func (ps *pointSet) add(p geometry.Point) {
	if p.Equal(ps.exclude) {
		return
	}
	for _, q := range ps.points {
		if q.Equal(p) {
			return
		}
	}
	ps.points = append(ps.points, p)
}

func (ps *pointSet) merge(points []geometry.Point) {
	for _, p := range points {
		ps.add(p)
	}
}
