package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"online-planner/internal/episode"
	"online-planner/internal/scene"
	"online-planner/internal/search"
)

var (
	runEpisodes  int
	runWorkers   int
	runSeed      int64
	runSceneFile string
	runPaths     bool
	runCompact   float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate the strategies over a batch of generated scenes",
	Long: `Generates one scene per episode (episode i uses seed+i), runs every
configured strategy on it and prints a result table followed by per-strategy
totals. With --scene a single GeoJSON scene is evaluated instead.`,
	RunE: runBatch,
}

func init() {
	runCmd.Flags().IntVarP(&runEpisodes, "episodes", "n", 0, "number of episodes (overrides config)")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "parallel workers (overrides config)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "base seed (overrides config)")
	runCmd.Flags().StringVar(&runSceneFile, "scene", "", "evaluate a GeoJSON scene instead of generating")
	runCmd.Flags().BoolVar(&runPaths, "paths", false, "print every path")
	runCmd.Flags().Float64Var(&runCompact, "compact", -1, "with --scene: drop nested obstacles and simplify outlines with this tolerance")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		episodes []episode.Episode
		err      error
	)
	if runSceneFile != "" {
		episodes, err = runSingleScene(ctx, runSceneFile)
	} else {
		b := &episode.Batch{
			Params:     cfg.Scenario.Params(),
			Strategies: cfg.Run.Strategies,
			Episodes:   cfg.Run.Episodes,
			Workers:    cfg.Run.Workers,
			Seed:       cfg.Run.Seed,
			MaxSteps:   cfg.Run.MaxSteps,
			Logger:     logger,
		}
		if cmd.Flags().Changed("episodes") {
			b.Episodes = runEpisodes
		}
		if cmd.Flags().Changed("workers") {
			b.Workers = runWorkers
		}
		if cmd.Flags().Changed("seed") {
			b.Seed = runSeed
		}
		if b.Episodes <= 0 {
			return fmt.Errorf("episodes must be positive, got %d", b.Episodes)
		}
		logger.Info("Starting batch",
			zap.Int("episodes", b.Episodes),
			zap.Int("workers", b.Workers),
			zap.Int64("seed", b.Seed))
		episodes, err = b.Run(ctx)
	}
	if err != nil {
		return err
	}

	return printReport(cmd.OutOrStdout(), episodes, runPaths)
}

func runSingleScene(ctx context.Context, path string) ([]episode.Episode, error) {
	s, err := scene.LoadGeoJSON(path)
	if err != nil {
		return nil, err
	}
	if runCompact >= 0 {
		before := len(s.Segments())
		if s, err = scene.Compact(s, runCompact); err != nil {
			return nil, err
		}
		logger.Info("Compacted scene",
			zap.Float64("tolerance", runCompact),
			zap.Int("segments_before", before))
	}
	logger.Info("Loaded scene",
		zap.String("path", path),
		zap.Int("polygons", len(s.Polygons())),
		zap.Int("segments", len(s.Segments())))

	ep := episode.Episode{ID: uuid.New(), Scene: s}
	runner := episode.NewRunner(cfg.Run.MaxSteps, logger)
	for _, name := range cfg.Run.Strategies {
		res, err := runner.Run(ctx, s, search.Factories[name]())
		if err != nil && ctx.Err() != nil {
			return nil, err
		}
		ep.Results = append(ep.Results, res)
	}
	return []episode.Episode{ep}, nil
}

func printReport(out io.Writer, episodes []episode.Episode, paths bool) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EPISODE\tID\tSTRATEGY\tSTATUS\tSTEPS\tSCORE")
	for _, ep := range episodes {
		for _, res := range ep.Results {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%.2f\n",
				ep.Index, ep.ID.String()[:8], res.Strategy, res.Status, res.Steps, res.Score)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tEPISODES\tSOLVED\tNO SOLUTION\tFAILED\tSTEPS\tSCORE")
	for _, t := range episode.Summarize(episodes) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.2f\n",
			t.Strategy, t.Episodes, t.Solved, t.NoSolution, t.Failed, t.Steps, t.Score)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !paths {
		return nil
	}
	fmt.Fprintln(out)
	for _, ep := range episodes {
		for _, res := range ep.Results {
			points := make([]string, len(res.Path))
			for i, p := range res.Path {
				points[i] = p.String()
			}
			fmt.Fprintf(out, "%d %s: %s\n", ep.Index, res.Strategy, strings.Join(points, " -> "))
		}
	}
	return nil
}
