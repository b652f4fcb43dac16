package scene

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"online-planner/internal/geometry"
)

// SegmentEntry wraps a segment index for R-tree storage
type SegmentEntry struct {
	Index int
	BBox  rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *SegmentEntry) Bounds() rtreego.Rect {
	return e.BBox
}

// SpatialIndex manages segment spatial queries
type SpatialIndex struct {
	tree *rtreego.Rtree
}

// NewSpatialIndex creates a new spatial index over the given segments
func NewSpatialIndex(segments []geometry.Segment) *SpatialIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	for i, seg := range segments {
		bbox, err := calculateBoundingBox(seg)
		if err == nil {
			tree.Insert(&SegmentEntry{Index: i, BBox: bbox})
		}
	}

	return &SpatialIndex{tree: tree}
}

// QueryRegion returns the indices of segments whose box intersects the given
// bounding box, sorted ascending
func (si *SpatialIndex) QueryRegion(minX, minY, maxX, maxY float64) []int {
	bbox, err := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)
	if err != nil {
		return []int{}
	}

	results := si.tree.SearchIntersect(bbox)
	indices := make([]int, 0, len(results))

	for _, item := range results {
		indices = append(indices, item.(*SegmentEntry).Index)
	}
	sort.Ints(indices)

	return indices
}

// calculateBoundingBox computes the axis-aligned bounding box for a segment.
// The box is padded so horizontal and vertical segments keep a positive extent.
func calculateBoundingBox(seg geometry.Segment) (rtreego.Rect, error) {
	minX, minY, maxX, maxY := GetRouteBoundingBox(seg.Origin, seg.Target, geometry.PointTolerance)

	return rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)
}

// GetRouteBoundingBox calculates the bounding box for a route with margin
func GetRouteBoundingBox(start, end geometry.Point, margin float64) (minX, minY, maxX, maxY float64) {
	minX = min(start.X, end.X) - margin
	maxX = max(start.X, end.X) + margin
	minY = min(start.Y, end.Y) - margin
	maxY = max(start.Y, end.Y) + margin
	return
}
