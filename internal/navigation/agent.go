// Package navigation tracks the agent inside a scene: where it is, which
// walls it stands between, and what it saw last.
package navigation

import (
	"errors"
	"fmt"

	"online-planner/internal/geometry"
	"online-planner/internal/scene"
	"online-planner/internal/visibility"
)

// ErrInvalidMoveTarget is returned by Move for a point the agent cannot see
var ErrInvalidMoveTarget = errors.New("move target is not visible from the current position")

// Agent is the mutable navigation state of one episode
type Agent struct {
	scene   *scene.Scene
	pos     geometry.Point
	walls   *visibility.Walls
	visible []geometry.Point
	fresh   bool
}

// New places an agent on the scene start
func New(s *scene.Scene) *Agent {
	return NewAt(s, s.Start())
}

// NewAt places an agent on an arbitrary free point
func NewAt(s *scene.Scene, pos geometry.Point) *Agent {
	return &Agent{
		scene: s,
		pos:   pos,
		walls: visibility.WallsAt(pos, s),
	}
}

// Position returns the current agent position
func (a *Agent) Position() geometry.Point { return a.pos }

// Goal returns the scene goal
func (a *Agent) Goal() geometry.Point { return a.scene.Goal() }

// Walls returns the standing walls, nil in open space
func (a *Agent) Walls() *visibility.Walls { return a.walls }

// Visible returns the points reachable in one move from the current position.
// The result is cached until the next Move and must not be modified.
func (a *Agent) Visible() []geometry.Point {
	if !a.fresh {
		a.visible = visibility.VisiblePoints(a.pos, a.walls, a.scene)
		a.fresh = true
	}
	return a.visible
}

// Move sends the agent to target, which must be one of the Visible points,
// and returns the distance travelled. The standing walls are recomputed for
// the new position.
func (a *Agent) Move(target geometry.Point) (float64, error) {
	dest, ok := a.lookup(target)
	if !ok {
		return 0, fmt.Errorf("%v -> %v: %w", a.pos, target, ErrInvalidMoveTarget)
	}

	distance := a.pos.Distance(dest)
	a.pos = dest
	a.walls = visibility.WallsAt(dest, a.scene)
	a.fresh = false
	a.visible = nil
	return distance, nil
}

// ReachedGoal reports whether the agent is within GoalTolerance of the goal
func (a *Agent) ReachedGoal() bool {
	return a.pos.Distance(a.scene.Goal()) < geometry.GoalTolerance
}

// lookup snaps target to the visible point it designates
func (a *Agent) lookup(target geometry.Point) (geometry.Point, bool) {
	for _, p := range a.Visible() {
		if p.Equal(target) {
			return p, true
		}
	}
	return geometry.Point{}, false
}
