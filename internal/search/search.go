// Package search implements the online strategies that pick the agent's next
// move from the points it can currently see. Strategies keep their own state
// (remembered targets, learned costs) and must not be shared between
// episodes.
package search

import (
	"errors"
	"math"

	"online-planner/internal/geometry"
)

var (
	// ErrSearchStuck means hill-climbing would revisit a chosen target, or has
	// nowhere to go. The episode ends without a solution.
	ErrSearchStuck = errors.New("search stuck")

	// ErrSearchUnreachable means no candidate is visible. It points at a scene
	// defect rather than a strategy limitation.
	ErrSearchUnreachable = errors.New("no visible candidates")

	// ErrNonFinite is an invariant violation: a heuristic or cost evaluated to
	// NaN or infinity.
	ErrNonFinite = errors.New("non-finite cost")
)

// GoalWeight scales the remaining distance in the heuristic, which makes the
// strategies goal-directed rather than shortest-path.
const GoalWeight = 2.0

// Heuristic scores moving from current to p: f(p) = d(current, p) + 2*d(p, goal)
func Heuristic(current, p, goal geometry.Point) float64 {
	return current.Distance(p) + GoalWeight*p.Distance(goal)
}

// Strategy decides the next move from the visible candidates
type Strategy interface {
	// Name identifies the strategy in results and logs
	Name() string

	// Next returns the chosen candidate. Candidates equal to current are ignored.
	Next(current, goal geometry.Point, candidates []geometry.Point) (geometry.Point, error)

	// Reset forgets everything learned so far
	Reset()
}

// Factory builds a fresh strategy for one episode
type Factory func() Strategy

// Factories lists the available strategies by name
var Factories = map[string]Factory{
	HillClimbingName: func() Strategy { return NewHillClimber() },
	LRTAName:         func() Strategy { return NewLRTA() },
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
