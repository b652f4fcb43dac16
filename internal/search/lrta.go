package search

import (
	"fmt"

	"online-planner/internal/geometry"
)

// LRTAName identifies the learning strategy
const LRTAName = "lrta"

// CostTable holds learned cost-to-goal estimates keyed by quantized position.
// Entries only ever grow.
type CostTable struct {
	costs map[geometry.Key]float64
}

// NewCostTable returns an empty table
func NewCostTable() *CostTable {
	return &CostTable{costs: make(map[geometry.Key]float64)}
}

// Get returns the learned cost of p, if any
func (t *CostTable) Get(p geometry.Point) (float64, bool) {
	v, ok := t.costs[p.Key()]
	return v, ok
}

// Raise stores v for p unless a larger value is already known, and returns
// the stored value
func (t *CostTable) Raise(p geometry.Point, v float64) float64 {
	k := p.Key()
	if old, ok := t.costs[k]; ok && old >= v {
		return old
	}
	t.costs[k] = v
	return v
}

// Len returns the number of positions with a learned cost
func (t *CostTable) Len() int {
	return len(t.costs)
}

// LRTA is a learning real-time heuristic search. Unseen candidates are scored
// with Heuristic; after each choice the current position learns the cost of
// going through the chosen candidate, so dead ends grow expensive and are
// eventually abandoned.
type LRTA struct {
	table *CostTable
}

// NewLRTA returns a learner with an empty cost table
func NewLRTA() *LRTA {
	return &LRTA{table: NewCostTable()}
}

func (l *LRTA) Name() string { return LRTAName }

// Table exposes the learned costs
func (l *LRTA) Table() *CostTable { return l.table }

// Next picks the candidate with the lowest learned cost, first seen on ties,
// then backs up the current position's estimate.
func (l *LRTA) Next(current, goal geometry.Point, candidates []geometry.Point) (geometry.Point, error) {
	var (
		best     geometry.Point
		bestCost float64
		found    bool
	)
	for _, c := range candidates {
		if c.Equal(current) {
			continue
		}
		cost, ok := l.table.Get(c)
		if !ok {
			cost = Heuristic(current, c, goal)
			if !finite(cost) {
				return geometry.Point{}, fmt.Errorf("f(%v) = %v: %w", c, cost, ErrNonFinite)
			}
			l.table.Raise(c, cost)
		}
		if !found || cost < bestCost {
			best, bestCost, found = c, cost, true
		}
	}

	if !found {
		return geometry.Point{}, fmt.Errorf("at %v: %w", current, ErrSearchUnreachable)
	}

	backup := bestCost + current.Distance(best)
	if !finite(backup) {
		return geometry.Point{}, fmt.Errorf("backup of %v = %v: %w", current, backup, ErrNonFinite)
	}
	// Raise keeps the larger of the old and new estimate so learned costs
	// never decrease
	l.table.Raise(current, backup)

	return best, nil
}

func (l *LRTA) Reset() {
	l.table = NewCostTable()
}
