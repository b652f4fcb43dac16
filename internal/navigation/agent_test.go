package navigation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"online-planner/internal/geometry"
	"online-planner/internal/scene"
	"online-planner/internal/visibility"
)

func pt(x, y float64) geometry.Point { return geometry.Point{X: x, Y: y} }

func triangleScene(t *testing.T) *scene.Scene {
	t.Helper()
	tri, err := scene.NewPolygon([]geometry.Point{pt(-100, 0), pt(100, 0), pt(0, 100)})
	require.NoError(t, err)
	s, err := scene.New([]scene.Polygon{tri}, pt(0, -300), pt(0, 300))
	require.NoError(t, err)
	return s
}

func TestMoveUpdatesPositionAndWalls(t *testing.T) {
	s := triangleScene(t)
	a := New(s)
	assert.Nil(t, a.Walls())
	assert.Equal(t, pt(0, -300), a.Position())

	d, err := a.Move(pt(-100, 0))
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(100*100+300*300), d, 1e-9)
	assert.Equal(t, pt(-100, 0), a.Position())
	require.NotNil(t, a.Walls())
	assert.Equal(t, visibility.Walls{Out: 0, In: 2}, *a.Walls())
	assert.False(t, a.ReachedGoal())

	d, err = a.Move(pt(0, 300))
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(100*100+300*300), d, 1e-9)
	assert.Nil(t, a.Walls())
	assert.True(t, a.ReachedGoal())
}

func TestMoveRejectsHiddenTarget(t *testing.T) {
	s := triangleScene(t)
	a := New(s)

	_, err := a.Move(pt(0, 300))
	assert.ErrorIs(t, err, ErrInvalidMoveTarget)
	assert.Equal(t, pt(0, -300), a.Position(), "failed move leaves state untouched")

	_, err = a.Move(pt(0, 100))
	assert.ErrorIs(t, err, ErrInvalidMoveTarget)
}

func TestMoveSnapsToVisiblePoint(t *testing.T) {
	s := triangleScene(t)
	a := New(s)

	_, err := a.Move(pt(100.0004, -0.0004))
	require.NoError(t, err)
	assert.Equal(t, pt(100, 0), a.Position())
	assert.NotNil(t, a.Walls())
}

func TestVisibleIsRecomputedAfterMove(t *testing.T) {
	s := triangleScene(t)
	a := New(s)

	before := a.Visible()
	assert.Equal(t, []geometry.Point{pt(-100, 0), pt(100, 0)}, before)

	_, err := a.Move(pt(100, 0))
	require.NoError(t, err)
	assert.Contains(t, a.Visible(), pt(0, 300))
	assert.NotContains(t, a.Visible(), pt(100, 0))
}

func TestReachedGoalTolerance(t *testing.T) {
	s := triangleScene(t)
	assert.True(t, NewAt(s, pt(0.005, 300)).ReachedGoal())
	assert.False(t, NewAt(s, pt(0.02, 300)).ReachedGoal())
}

func TestNewAtVertexPicksUpWalls(t *testing.T) {
	s := triangleScene(t)
	a := NewAt(s, pt(0, 100))
	require.NotNil(t, a.Walls())
	assert.Equal(t, visibility.Walls{Out: 2, In: 1}, *a.Walls())
}
