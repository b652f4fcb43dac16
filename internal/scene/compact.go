package scene

import (
	"math"

	"online-planner/internal/geometry"
)

// Compact returns a copy of s without obstacles nested inside other
// obstacles, with the remaining outlines simplified by Douglas-Peucker.
// An epsilon of zero only drops nested obstacles and exactly collinear
// vertices. Start and goal are kept.
func Compact(s *Scene, epsilon float64) (*Scene, error) {
	kept := DropContained(s.Polygons())
	for i, poly := range kept {
		kept[i] = SimplifyPolygon(poly, epsilon)
	}
	return New(kept, s.Start(), s.Goal())
}

// SimplifyPolygon reduces polygon complexity using the Douglas-Peucker
// algorithm. The polygon is returned unchanged if simplification would
// leave fewer than 3 vertices or no area.
func SimplifyPolygon(p Polygon, epsilon float64) Polygon {
	vertices := p.Vertices()
	if len(vertices) <= 3 {
		return p
	}

	// Close the loop so the first vertex anchors both ends
	closed := append(vertices, vertices[0])
	simplified := douglasPeucker(closed, epsilon)
	simplified = simplified[:len(simplified)-1]
	if len(simplified) < 3 {
		return p
	}

	out, err := NewPolygon(simplified)
	if err != nil {
		return p
	}
	return out
}

// douglasPeucker implements the Douglas-Peucker line simplification algorithm
func douglasPeucker(points []geometry.Point, epsilon float64) []geometry.Point {
	if len(points) <= 2 {
		return points
	}

	// Find the point with maximum distance from line between first and last
	dmax := -1.0
	index := 0
	end := len(points) - 1

	for i := 1; i < end; i++ {
		d := perpendicularDistance(points[i], points[0], points[end])
		if d > dmax {
			index = i
			dmax = d
		}
	}

	if dmax > epsilon {
		left := douglasPeucker(points[0:index+1], epsilon)
		right := douglasPeucker(points[index:], epsilon)

		// Combine results (removing duplicate point at index)
		result := make([]geometry.Point, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	return []geometry.Point{points[0], points[end]}
}

// perpendicularDistance is the distance from point to the line through
// lineStart and lineEnd. When both ends coincide it is the plain distance.
func perpendicularDistance(point, lineStart, lineEnd geometry.Point) float64 {
	dir := lineEnd.Sub(lineStart)
	mag := dir.Len()
	if mag == 0 {
		return point.Distance(lineStart)
	}
	return math.Abs(dir.Cross(point.Sub(lineStart))) / mag
}

// DropContained removes polygons that are fully contained within other
// polygons. Of two identical polygons the first is kept.
func DropContained(polygons []Polygon) []Polygon {
	contained := make([]bool, len(polygons))

	for i := range polygons {
		if contained[i] {
			continue
		}
		for j := range polygons {
			if i == j || contained[j] {
				continue
			}
			if isContainedIn(polygons[j], polygons[i]) {
				contained[j] = true
				continue
			}
			if isContainedIn(polygons[i], polygons[j]) {
				contained[i] = true
				break
			}
		}
	}

	result := make([]Polygon, 0, len(polygons))
	for i, poly := range polygons {
		if !contained[i] {
			result = append(result, poly)
		}
	}
	return result
}

// isContainedIn checks if polygon a lies fully within polygon b: every vertex
// of a is inside or on b and no edges properly cross.
func isContainedIn(a, b Polygon) bool {
	ab, bb := a.Ring().Bound(), b.Ring().Bound()
	if !bb.Pad(geometry.PointTolerance).Contains(ab.Min) || !bb.Pad(geometry.PointTolerance).Contains(ab.Max) {
		return false
	}

	for _, v := range a.Vertices() {
		if !b.Contains(v) && !onAnyBoundary(v, []Polygon{b}) {
			return false
		}
	}

	const inner = 1e-9
	for _, ea := range a.Edges {
		for _, eb := range b.Edges {
			t1, t2, kind := geometry.Intersect(ea.Origin, ea.Direction, eb)
			if kind == geometry.Hit && t1 > inner && t1 < 1-inner && t2 > inner && t2 < 1-inner {
				return false
			}
		}
	}
	return true
}
