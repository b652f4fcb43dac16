package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"online-planner/internal/geometry"
)

// Feature property naming the role of a Point feature
const (
	RoleProperty = "role"
	RoleStart    = "start"
	RoleGoal     = "goal"
)

// ErrMissingEndpoint is returned when a scene file lacks a start or goal point
var ErrMissingEndpoint = errors.New("scene file needs one start and one goal point")

// LoadGeoJSON reads a scene from a GeoJSON feature collection file
func LoadGeoJSON(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := DecodeGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// DecodeGeoJSON converts a feature collection into a Scene. Polygon and
// MultiPolygon features become obstacles (outer rings only); Point features
// tagged with role=start or role=goal become the endpoints.
func DecodeGeoJSON(data []byte) (*Scene, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	var (
		polygons    []Polygon
		start, goal *geometry.Point
	)

	for i, feature := range fc.Features {
		switch g := feature.Geometry.(type) {
		case orb.Polygon:
			poly, err := polygonFromOrb(g)
			if err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
			polygons = append(polygons, poly)

		case orb.MultiPolygon:
			for _, part := range g {
				poly, err := polygonFromOrb(part)
				if err != nil {
					return nil, fmt.Errorf("feature %d: %w", i, err)
				}
				polygons = append(polygons, poly)
			}

		case orb.Point:
			p := geometry.FromOrb(g)
			switch feature.Properties.MustString(RoleProperty, "") {
			case RoleStart:
				start = &p
			case RoleGoal:
				goal = &p
			}
		}
	}

	if start == nil || goal == nil {
		return nil, ErrMissingEndpoint
	}
	return New(polygons, *start, *goal)
}

func polygonFromOrb(p orb.Polygon) (Polygon, error) {
	if len(p) == 0 {
		return Polygon{}, ErrTooFewVertices
	}
	// First ring is the outer boundary
	return NewPolygon(geometry.VerticesFromRing(p[0]))
}

// EncodeGeoJSON writes the scene as a feature collection that DecodeGeoJSON
// reads back
func EncodeGeoJSON(s *Scene) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, poly := range s.Polygons() {
		fc.Append(geojson.NewFeature(orb.Polygon{poly.Ring()}))
	}

	start := geojson.NewFeature(geometry.ToOrb(s.Start()))
	start.Properties[RoleProperty] = RoleStart
	fc.Append(start)

	goal := geojson.NewFeature(geometry.ToOrb(s.Goal()))
	goal.Properties[RoleProperty] = RoleGoal
	fc.Append(goal)

	return fc.MarshalJSON()
}

// SaveGeoJSON writes the scene to path
func SaveGeoJSON(s *Scene, path string) error {
	data, err := EncodeGeoJSON(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
