package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"online-planner/internal/config"
	"online-planner/internal/episode"
	"online-planner/internal/geometry"
	"online-planner/internal/scene"
)

func testServer() *server {
	c := config.Default()
	c.Scenario.Obstacles = 3
	c.Run.MaxSteps = 2000
	c.Server.ReplayRate = 1000
	return newServer(c, zap.NewNop())
}

func triangleGeoJSON(t *testing.T) []byte {
	t.Helper()
	tri, err := scene.NewPolygon([]geometry.Point{{X: -100, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 100}})
	require.NoError(t, err)
	s, err := scene.New([]scene.Polygon{tri}, geometry.Point{X: 0, Y: -300}, geometry.Point{X: 0, Y: 300})
	require.NoError(t, err)
	data, err := scene.EncodeGeoJSON(s)
	require.NoError(t, err)
	return data
}

func postEpisode(t *testing.T, s *server, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/episode", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestEpisodeHandlerWithScene(t *testing.T) {
	s := testServer()
	body, err := json.Marshal(EpisodeRequest{Scene: triangleGeoJSON(t)})
	require.NoError(t, err)

	rec := postEpisode(t, s, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var resp EpisodeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Seed)
	assert.NotEmpty(t, resp.Scene)
	assert.Equal(t, orb.Point{-100, -300}, resp.Bound.Min)
	assert.Equal(t, orb.Point{100, 300}, resp.Bound.Max)
	require.Len(t, resp.Results, 2)
	for _, res := range resp.Results {
		assert.True(t, res.Success, res.Strategy)
		assert.Equal(t, episode.StatusSolved, res.Status)
		assert.Len(t, res.Path, 3)
	}
}

func TestEpisodeHandlerWithSeed(t *testing.T) {
	s := testServer()
	seed := int64(42)
	body, err := json.Marshal(EpisodeRequest{Seed: &seed, Strategies: []string{"lrta"}})
	require.NoError(t, err)

	first := postEpisode(t, s, body)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := postEpisode(t, s, body)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b EpisodeResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))

	require.NotNil(t, a.Seed)
	assert.Equal(t, seed, *a.Seed)
	require.Len(t, a.Results, 1)
	assert.Equal(t, "lrta", a.Results[0].Strategy)
	assert.Equal(t, a.Results, b.Results, "same seed, same episode")
	assert.NotEqual(t, a.ID, b.ID)

	sc, err := scene.DecodeGeoJSON(a.Scene)
	require.NoError(t, err)
	assert.Len(t, sc.Polygons(), 3)
}

func TestEpisodeHandlerRejectsBadInput(t *testing.T) {
	s := testServer()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"seed":`},
		{"unknown strategy", `{"strategies":["dijkstra"]}`},
		{"bad scene", `{"scene":{"type":"FeatureCollection","features":[]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postEpisode(t, s, []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestEpisodeHandlerMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/episode", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/episode", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "POST, GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestHealthHandler(t *testing.T) {
	s := testServer()
	body, err := json.Marshal(EpisodeRequest{Scene: triangleGeoJSON(t)})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, postEpisode(t, s, body).Code)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ready", health["status"])
	assert.Equal(t, float64(1), health["episodes"])
}

func TestReplayStreamsEpisode(t *testing.T) {
	ts := httptest.NewServer(testServer())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/replay?seed=7&strategy=hill-climbing"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var msgs []replayMessage
	for {
		var msg replayMessage
		err := wsjson.Read(ctx, conn, &msg)
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			break
		}
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}

	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, "scene", msgs[0].Type)
	last := msgs[len(msgs)-1]
	require.Equal(t, "result", last.Type)
	require.NotNil(t, last.Result)
	assert.Equal(t, "hill-climbing", last.Result.Strategy)

	steps := msgs[1 : len(msgs)-1]
	assert.Len(t, steps, last.Result.Steps)
	for i, m := range steps {
		assert.Equal(t, "step", m.Type)
		require.NotNil(t, m.Step)
		assert.Equal(t, i, m.Step.Index)
	}
}

func TestReplayRejectsBadQuery(t *testing.T) {
	s := testServer()
	for _, target := range []string{"/replay?seed=abc", "/replay?strategy=dijkstra"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}
