package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"online-planner/internal/config"
	"online-planner/internal/episode"
	"online-planner/internal/scene"
	"online-planner/internal/search"
)

const maxRequestBytes = 1 << 20

type EpisodeRequest struct {
	Seed       *int64          `json:"seed,omitempty"`       // Generator seed, ignored when a scene is given
	Scene      json.RawMessage `json:"scene,omitempty"`      // Optional GeoJSON feature collection
	Strategies []string        `json:"strategies,omitempty"` // Defaults to run.strategies
	MaxSteps   int             `json:"maxSteps,omitempty"`
}

type EpisodeResponse struct {
	ID      uuid.UUID        `json:"id"`
	Seed    *int64           `json:"seed,omitempty"`
	Scene   json.RawMessage  `json:"scene"`
	Bound   orb.Bound        `json:"bound"`
	Results []episode.Result `json:"results"`
}

type replayMessage struct {
	Type   string          `json:"type"`
	Scene  json.RawMessage `json:"scene,omitempty"`
	Step   *episode.Step   `json:"step,omitempty"`
	Result *episode.Result `json:"result,omitempty"`
}

type server struct {
	cfg    *config.Config
	logger *zap.Logger
	router *mux.Router
	served atomic.Int64
}

func newServer(cfg *config.Config, logger *zap.Logger) *server {
	s := &server{
		cfg:    cfg,
		logger: logger,
		router: mux.NewRouter(),
	}
	s.router.HandleFunc("/episode", corsMiddleware(s.episodeHandler)).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/health", corsMiddleware(s.healthHandler)).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/replay", s.replayHandler).Methods(http.MethodGet)
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// POST /episode - Run the strategies on a supplied or generated scene
func (s *server) episodeHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("📍 Episode request received")

	var req EpisodeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.logger.Warn("❌ Invalid request body", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	strategies := req.Strategies
	if len(strategies) == 0 {
		strategies = s.cfg.Run.Strategies
	}
	for _, name := range strategies {
		if _, ok := search.Factories[name]; !ok {
			http.Error(w, fmt.Sprintf("Unknown strategy %q", name), http.StatusBadRequest)
			return
		}
	}
	maxSteps := s.cfg.Run.MaxSteps
	if req.MaxSteps > 0 {
		maxSteps = min(req.MaxSteps, s.cfg.Run.MaxSteps)
	}

	resp := EpisodeResponse{ID: uuid.New()}
	var sc *scene.Scene
	if len(req.Scene) > 0 {
		var err error
		sc, err = scene.DecodeGeoJSON(req.Scene)
		if err != nil {
			s.logger.Warn("❌ Invalid scene", zap.Error(err))
			http.Error(w, "Invalid scene: "+err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		seed := time.Now().UnixNano()
		if req.Seed != nil {
			seed = *req.Seed
		}
		resp.Seed = &seed

		var err error
		sc, err = scene.NewGenerator(s.cfg.Scenario.Params(), seed).Scene()
		if err != nil {
			s.logger.Error("❌ Scene generation failed", zap.Int64("seed", seed), zap.Error(err))
			http.Error(w, "Scene generation failed: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}

	encoded, err := scene.EncodeGeoJSON(sc)
	if err != nil {
		http.Error(w, "Failed to encode scene", http.StatusInternalServerError)
		return
	}
	resp.Scene = encoded
	resp.Bound = sc.Bound()

	log := s.logger.With(zap.String("id", resp.ID.String()))
	log.Info("   Scene ready",
		zap.Stringer("start", sc.Start()),
		zap.Stringer("goal", sc.Goal()),
		zap.Int("polygons", len(sc.Polygons())))

	runner := episode.NewRunner(maxSteps, log)
	for _, name := range strategies {
		res, err := runner.Run(r.Context(), sc, search.Factories[name]())
		if err != nil && r.Context().Err() != nil {
			log.Warn("❌ Request canceled", zap.Error(err))
			return
		}
		if res.Success {
			log.Info("✅ Goal reached", zap.String("strategy", name), zap.Int("steps", res.Steps), zap.Float64("score", res.Score))
		} else {
			log.Info("❌ Goal not reached", zap.String("strategy", name), zap.String("status", string(res.Status)), zap.String("reason", res.Reason))
		}
		resp.Results = append(resp.Results, res)
	}
	s.served.Add(1)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Warn("Failed to write response", zap.Error(err))
	}
}

// GET /health - Health check endpoint
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     "ready",
		"strategies": s.cfg.Run.Strategies,
		"episodes":   s.served.Load(),
	})
}

// GET /replay?seed=N&strategy=NAME - Stream one episode step by step over a
// websocket: the scene first, then every move, then the result.
func (s *server) replayHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	seed := s.cfg.Run.Seed
	if v := q.Get("seed"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "Invalid seed", http.StatusBadRequest)
			return
		}
		seed = parsed
	}
	name := q.Get("strategy")
	if name == "" {
		name = search.LRTAName
	}
	factory, ok := search.Factories[name]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown strategy %q", name), http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Warn("Websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "replay aborted")

	log := s.logger.With(zap.Int64("seed", seed), zap.String("strategy", name))
	log.Info("🎬 Replay started")

	err = s.replay(r.Context(), conn, seed, factory())
	if errors.Is(err, context.Canceled) ||
		websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		return
	}
	if err != nil {
		log.Warn("Replay failed", zap.Error(err))
		conn.Close(websocket.StatusInternalError, err.Error())
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *server) replay(ctx context.Context, conn *websocket.Conn, seed int64, strategy search.Strategy) error {
	sc, err := scene.NewGenerator(s.cfg.Scenario.Params(), seed).Scene()
	if err != nil {
		return err
	}
	encoded, err := scene.EncodeGeoJSON(sc)
	if err != nil {
		return err
	}

	var steps []episode.Step
	runner := episode.NewRunner(s.cfg.Run.MaxSteps, s.logger)
	runner.Observer = func(st episode.Step) { steps = append(steps, st) }
	res, err := runner.Run(ctx, sc, strategy)
	if err != nil && ctx.Err() != nil {
		return err
	}

	limiter := rate.NewLimiter(rate.Limit(s.cfg.Server.ReplayRate), 1)

	if err := writeTimeout(ctx, time.Second, conn, replayMessage{Type: "scene", Scene: encoded}); err != nil {
		return err
	}
	for i := range steps {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := writeTimeout(ctx, time.Second, conn, replayMessage{Type: "step", Step: &steps[i]}); err != nil {
			return err
		}
	}
	return writeTimeout(ctx, time.Second, conn, replayMessage{Type: "result", Result: &res})
}

// writeTimeout writes a JSON message to a websocket with a timeout
func writeTimeout(ctx context.Context, timeout time.Duration, conn *websocket.Conn, msg replayMessage) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return wsjson.Write(ctx, conn, msg)
}
