package scene

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"online-planner/internal/geometry"
)

// ErrSpawnExhausted is returned when no free start or goal could be drawn
var ErrSpawnExhausted = errors.New("no free spawn point found")

// Params are the scenario knobs of the random generator
type Params struct {
	Obstacles     int
	Width         float64
	Height        float64
	MinVertices   int
	MaxVertices   int
	MinRadius     float64
	MaxRadius     float64
	SpawnAttempts int
}

// DefaultParams matches the reference scenario: a 1000x1000 map centered on
// the origin with obstacles of radius 100 to 200.
func DefaultParams() Params {
	return Params{
		Obstacles:     8,
		Width:         1000,
		Height:        1000,
		MinVertices:   3,
		MaxVertices:   6,
		MinRadius:     100,
		MaxRadius:     200,
		SpawnAttempts: 1000,
	}
}

// Generator draws random scenes from a seeded source. It is not safe for
// concurrent use; give every worker its own.
type Generator struct {
	params Params
	rng    *rand.Rand
}

// NewGenerator creates a generator with a deterministic seed
func NewGenerator(params Params, seed int64) *Generator {
	return &Generator{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Polygon draws one obstacle. Vertices sit at equal angular steps around a
// random center, so the loop is simple by construction.
func (g *Generator) Polygon() (Polygon, error) {
	p := g.params
	n := p.MinVertices + g.rng.Intn(p.MaxVertices-p.MinVertices+1)
	radius := p.MinRadius + g.rng.Float64()*(p.MaxRadius-p.MinRadius)
	theta := 2 * math.Pi / float64(n)
	offset := g.rng.Float64() * theta
	center := g.mapPoint()

	vertices := make([]geometry.Point, 0, n)
	for i := 0; i < n; i++ {
		angle := offset + float64(i)*theta
		vertices = append(vertices, geometry.Point{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		})
	}
	return NewPolygon(vertices)
}

// Scene draws the obstacles, then re-rolls start and goal until both are free
func (g *Generator) Scene() (*Scene, error) {
	polygons := make([]Polygon, 0, g.params.Obstacles)
	for i := 0; i < g.params.Obstacles; i++ {
		poly, err := g.Polygon()
		if err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", i, err)
		}
		polygons = append(polygons, poly)
	}

	start, err := g.freePoint(polygons)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	goal, err := g.freePoint(polygons)
	if err != nil {
		return nil, fmt.Errorf("goal: %w", err)
	}

	return New(polygons, start, goal)
}

func (g *Generator) freePoint(polygons []Polygon) (geometry.Point, error) {
	for attempt := 0; attempt < g.params.SpawnAttempts; attempt++ {
		p := g.mapPoint()
		if !insideAny(p, polygons) && !onAnyBoundary(p, polygons) {
			return p, nil
		}
	}
	return geometry.Point{}, ErrSpawnExhausted
}

func (g *Generator) mapPoint() geometry.Point {
	return geometry.Point{
		X: (g.rng.Float64() - 0.5) * g.params.Width,
		Y: (g.rng.Float64() - 0.5) * g.params.Height,
	}
}

func insideAny(p geometry.Point, polygons []Polygon) bool {
	for _, poly := range polygons {
		if poly.Contains(p) {
			return true
		}
	}
	return false
}

// onAnyBoundary rejects the measure-zero case of a spawn exactly on an edge
func onAnyBoundary(p geometry.Point, polygons []Polygon) bool {
	for _, poly := range polygons {
		for _, e := range poly.Edges {
			l := e.Direction.Len()
			t := p.Sub(e.Origin).Dot(e.Direction) / (l * l)
			if t >= 0 && t <= 1 && p.Distance(e.At(t)) <= geometry.PointTolerance {
				return true
			}
		}
	}
	return false
}
