package search

import (
	"fmt"

	"online-planner/internal/geometry"
)

// HillClimbingName identifies the greedy strategy
const HillClimbingName = "hill-climbing"

// HillClimber greedily moves to the candidate with the lowest heuristic.
// It fails as soon as it would choose a target it already chose, which is
// how it detects oscillation between local optima.
type HillClimber struct {
	chosen []geometry.Point
}

// NewHillClimber returns a hill-climber with an empty memory
func NewHillClimber() *HillClimber {
	return &HillClimber{}
}

func (h *HillClimber) Name() string { return HillClimbingName }

// Next picks the minimum-f candidate, first seen on ties
func (h *HillClimber) Next(current, goal geometry.Point, candidates []geometry.Point) (geometry.Point, error) {
	var (
		best  geometry.Point
		bestF float64
		found bool
	)
	for _, c := range candidates {
		if c.Equal(current) {
			continue
		}
		f := Heuristic(current, c, goal)
		if !finite(f) {
			return geometry.Point{}, fmt.Errorf("f(%v) = %v: %w", c, f, ErrNonFinite)
		}
		if !found || f < bestF {
			best, bestF, found = c, f, true
		}
	}

	if !found {
		return geometry.Point{}, fmt.Errorf("nowhere to go from %v: %w", current, ErrSearchStuck)
	}
	if h.wasChosen(best) {
		return geometry.Point{}, fmt.Errorf("%v chosen twice: %w", best, ErrSearchStuck)
	}

	h.chosen = append(h.chosen, best)
	return best, nil
}

// Chosen returns the targets picked so far, in order
func (h *HillClimber) Chosen() []geometry.Point {
	return h.chosen
}

func (h *HillClimber) Reset() {
	h.chosen = nil
}

func (h *HillClimber) wasChosen(p geometry.Point) bool {
	for _, q := range h.chosen {
		if q.Equal(p) {
			return true
		}
	}
	return false
}
