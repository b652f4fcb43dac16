package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"online-planner/internal/config"
	"online-planner/internal/episode"
	"online-planner/internal/geometry"
	"online-planner/internal/scene"
)

func setupCLI(t *testing.T) *bytes.Buffer {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.Default()
	cfg.Scenario.Obstacles = 3
	cfg.Run.Episodes = 2
	cfg.Run.MaxSteps = 2000

	t.Cleanup(func() {
		runSceneFile = ""
		runPaths = false
		runCompact = -1
		sceneOut = "scene.geojson"
	})

	var out bytes.Buffer
	return &out
}

func TestRunBatchCmd(t *testing.T) {
	out := setupCLI(t)
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	require.NoError(t, runBatch(cmd, nil))

	text := out.String()
	assert.Contains(t, text, "EPISODE")
	assert.Contains(t, text, "hill-climbing")
	assert.Contains(t, text, "lrta")
	assert.NotContains(t, text, "->")
}

func TestSceneCmdRoundTripsThroughRun(t *testing.T) {
	out := setupCLI(t)
	sceneOut = filepath.Join(t.TempDir(), "scene.geojson")

	cmd := &cobra.Command{}
	cmd.SetOut(out)
	require.NoError(t, generateScene(cmd, nil))
	assert.Contains(t, out.String(), "3 obstacles")

	generated, err := scene.NewGenerator(cfg.Scenario.Params(), cfg.Run.Seed).Scene()
	require.NoError(t, err)
	loaded, err := scene.LoadGeoJSON(sceneOut)
	require.NoError(t, err)
	assert.True(t, loaded.Start().Equal(generated.Start()))
	assert.True(t, loaded.Goal().Equal(generated.Goal()))

	out.Reset()
	runSceneFile = sceneOut
	runPaths = true
	require.NoError(t, runBatch(cmd, nil))
	assert.Contains(t, out.String(), "->")

	out.Reset()
	runCompact = 0
	require.NoError(t, runBatch(cmd, nil))
	assert.Contains(t, out.String(), "lrta")
}

func TestRunBatchMissingScene(t *testing.T) {
	setupCLI(t)
	runSceneFile = filepath.Join(t.TempDir(), "absent.geojson")
	assert.Error(t, runBatch(&cobra.Command{}, nil))
}

func TestPrintReport(t *testing.T) {
	episodes := []episode.Episode{{
		ID:    uuid.MustParse("0f0e0d0c-0b0a-0908-0706-050403020100"),
		Index: 4,
		Results: []episode.Result{{
			Strategy: "lrta",
			Status:   episode.StatusSolved,
			Success:  true,
			Steps:    1,
			Score:    950,
			Path:     []geometry.Point{{X: 0, Y: 0}, {X: 30, Y: 40}},
		}},
	}}

	var out bytes.Buffer
	require.NoError(t, printReport(&out, episodes, true))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, []string{"4", "0f0e0d0c", "lrta", "solved", "1", "950.00"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"lrta", "1", "1", "0", "0", "1", "950.00"}, strings.Fields(lines[4]))
	assert.Equal(t, "4 lrta: (0.000, 0.000) -> (30.000, 40.000)", lines[6])
}
