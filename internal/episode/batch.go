package episode

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"online-planner/internal/scene"
	"online-planner/internal/search"
)

// Episode is one generated scene and the result of every strategy on it
type Episode struct {
	ID      uuid.UUID    `json:"id"`
	Index   int          `json:"index"`
	Seed    int64        `json:"seed"`
	Scene   *scene.Scene `json:"-"`
	Results []Result     `json:"results"`
}

// Totals accumulates results of one strategy over a batch
type Totals struct {
	Strategy   string  `json:"strategy"`
	Episodes   int     `json:"episodes"`
	Solved     int     `json:"solved"`
	NoSolution int     `json:"no_solution"`
	Failed     int     `json:"failed"`
	Steps      int     `json:"steps"`
	Score      float64 `json:"score"`
}

// Batch evaluates strategies over independently generated scenes.
// Episode i uses generator seed Seed+i, so results do not depend on worker
// scheduling.
type Batch struct {
	Params     scene.Params
	Strategies []string
	Episodes   int
	Workers    int
	Seed       int64
	MaxSteps   int
	Logger     *zap.Logger
}

// Run generates and evaluates all episodes. Strategy failures are recorded in
// the results; only scene generation errors and cancellation abort the batch.
func (b *Batch) Run(ctx context.Context) ([]Episode, error) {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, name := range b.Strategies {
		if _, ok := search.Factories[name]; !ok {
			return nil, fmt.Errorf("unknown strategy %q", name)
		}
	}

	episodes := make([]Episode, b.Episodes)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.Workers, 1))
	for i := range episodes {
		g.Go(func() error {
			ep, err := b.runEpisode(ctx, i, logger)
			if err != nil {
				return err
			}
			episodes[i] = ep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("Batch finished",
		zap.Int("episodes", b.Episodes),
		zap.Strings("strategies", b.Strategies))
	return episodes, nil
}

func (b *Batch) runEpisode(ctx context.Context, index int, logger *zap.Logger) (Episode, error) {
	if err := ctx.Err(); err != nil {
		return Episode{}, err
	}

	seed := b.Seed + int64(index)
	s, err := scene.NewGenerator(b.Params, seed).Scene()
	if err != nil {
		return Episode{}, fmt.Errorf("episode %d (seed %d): %w", index, seed, err)
	}

	ep := Episode{
		ID:    uuid.New(),
		Index: index,
		Seed:  seed,
		Scene: s,
	}
	log := logger.With(zap.Int("episode", index), zap.String("id", ep.ID.String()))
	runner := NewRunner(b.MaxSteps, log)

	for _, name := range b.Strategies {
		res, err := runner.Run(ctx, s, search.Factories[name]())
		if err != nil && ctx.Err() != nil {
			return Episode{}, ctx.Err()
		}
		ep.Results = append(ep.Results, res)
		log.Info("Episode result",
			zap.String("strategy", name),
			zap.String("status", string(res.Status)),
			zap.Int("steps", res.Steps),
			zap.Float64("score", res.Score))
	}
	return ep, nil
}

// Summarize sums results per strategy, sorted by strategy name
func Summarize(episodes []Episode) []Totals {
	byName := make(map[string]*Totals)
	for _, ep := range episodes {
		for _, res := range ep.Results {
			t, ok := byName[res.Strategy]
			if !ok {
				t = &Totals{Strategy: res.Strategy}
				byName[res.Strategy] = t
			}
			t.Episodes++
			t.Steps += res.Steps
			t.Score += res.Score
			switch res.Status {
			case StatusSolved:
				t.Solved++
			case StatusNoSolution:
				t.NoSolution++
			default:
				t.Failed++
			}
		}
	}

	totals := make([]Totals, 0, len(byName))
	for _, t := range byName {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Strategy < totals[j].Strategy })
	return totals
}
