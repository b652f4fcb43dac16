// Package episode drives a search strategy through a scene: look, choose,
// move, until the goal is reached or the strategy gives up.
package episode

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"online-planner/internal/geometry"
	"online-planner/internal/navigation"
	"online-planner/internal/scene"
	"online-planner/internal/search"
)

// CompletionBonus is added to the score of an episode that reaches the goal
const CompletionBonus = 1000.0

// ErrStepLimit is returned when an episode exceeds its step ceiling
var ErrStepLimit = errors.New("step limit reached")

// Status is the outcome of one strategy on one scene
type Status string

const (
	StatusSolved     Status = "solved"
	StatusNoSolution Status = "no-solution"
	StatusFailed     Status = "failed"
)

// Step describes one accepted move
type Step struct {
	Index    int              `json:"index"`
	From     geometry.Point   `json:"from"`
	To       geometry.Point   `json:"to"`
	Distance float64          `json:"distance"`
	Visible  []geometry.Point `json:"visible"`
}

// Observer is called synchronously after every move
type Observer func(Step)

// Result is what one strategy achieved on one scene
type Result struct {
	Strategy string           `json:"strategy"`
	Status   Status           `json:"status"`
	Success  bool             `json:"success"`
	Score    float64          `json:"score"`
	Steps    int              `json:"steps"`
	Path     []geometry.Point `json:"path"`
	Reason   string           `json:"reason,omitempty"`
}

// Runner runs single episodes
type Runner struct {
	MaxSteps int
	Logger   *zap.Logger
	Observer Observer
}

// NewRunner creates a runner with the given step ceiling
func NewRunner(maxSteps int, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{MaxSteps: maxSteps, Logger: logger}
}

// Run moves a fresh agent from the scene start with the given strategy. The
// strategy is reset first, so an instance can be reused across scenes.
//
// A strategy that gets stuck is a normal outcome: the result has
// StatusNoSolution and the error is nil. Any other failure (unreachable
// position, step limit, invariant violation, cancellation) is returned as an
// error alongside a StatusFailed result carrying the partial path.
func (r *Runner) Run(ctx context.Context, s *scene.Scene, strategy search.Strategy) (Result, error) {
	strategy.Reset()
	agent := navigation.New(s)
	res := Result{
		Strategy: strategy.Name(),
		Path:     []geometry.Point{agent.Position()},
	}
	log := r.Logger.With(zap.String("strategy", strategy.Name()))

	for !agent.ReachedGoal() {
		if err := ctx.Err(); err != nil {
			return r.fail(res, err)
		}
		if res.Steps >= r.MaxSteps {
			return r.fail(res, fmt.Errorf("%d steps: %w", res.Steps, ErrStepLimit))
		}

		from := agent.Position()
		visible := agent.Visible()
		target, err := strategy.Next(from, agent.Goal(), visible)
		if errors.Is(err, search.ErrSearchStuck) {
			res.Status = StatusNoSolution
			res.Reason = err.Error()
			log.Debug("No solution found", zap.Int("steps", res.Steps), zap.Error(err))
			return res, nil
		}
		if err != nil {
			return r.fail(res, err)
		}

		distance, err := agent.Move(target)
		if err != nil {
			return r.fail(res, err)
		}

		res.Score -= distance
		res.Path = append(res.Path, agent.Position())
		log.Debug("Moved",
			zap.Int("step", res.Steps),
			zap.Stringer("from", from),
			zap.Stringer("to", agent.Position()),
			zap.Int("visible", len(visible)))

		if r.Observer != nil {
			r.Observer(Step{
				Index:    res.Steps,
				From:     from,
				To:       agent.Position(),
				Distance: distance,
				Visible:  visible,
			})
		}
		res.Steps++
	}

	res.Status = StatusSolved
	res.Success = true
	res.Score += CompletionBonus
	log.Debug("Goal reached", zap.Int("steps", res.Steps), zap.Float64("score", res.Score))
	return res, nil
}

func (r *Runner) fail(res Result, err error) (Result, error) {
	res.Status = StatusFailed
	res.Reason = err.Error()
	r.Logger.Warn("Episode failed",
		zap.String("strategy", res.Strategy),
		zap.Int("steps", res.Steps),
		zap.Error(err))
	return res, err
}
