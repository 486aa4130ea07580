// Package api serves the games, goalies and snapshot endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sovagpt/nhl/internal/cache"
	"github.com/sovagpt/nhl/internal/goalie"
	"github.com/sovagpt/nhl/internal/metrics"
	"github.com/sovagpt/nhl/internal/pipeline"
)

const defaultRequestTimeout = 45 * time.Second

// Builder produces the responses served here; *pipeline.Pipeline satisfies it.
type Builder interface {
	Build(ctx context.Context) (*pipeline.Response, error)
	Goalies(ctx context.Context) []goalie.Record
	Now() time.Time
}

// Snapshots reads the last stored snapshot as raw JSON.
type Snapshots interface {
	Raw(ctx context.Context) ([]byte, error)
}

// Server wires HTTP routes.
type Server struct {
	builder        Builder
	snapshots      Snapshots
	requestTimeout time.Duration
	logger         *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithSnapshots enables GET /api/snapshot.
func WithSnapshots(s Snapshots) Option {
	return func(srv *Server) { srv.snapshots = s }
}

// WithRequestTimeout bounds each build.
func WithRequestTimeout(d time.Duration) Option {
	return func(srv *Server) {
		if d > 0 {
			srv.requestTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) {
		if l != nil {
			srv.logger = l
		}
	}
}

// NewServer returns a server over b.
func NewServer(b Builder, opts ...Option) *Server {
	s := &Server{builder: b, requestTimeout: defaultRequestTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/games", MetricsMiddleware(cors(s.HandleGames), "games"))
	mux.HandleFunc("/api/goalies", MetricsMiddleware(cors(s.HandleGoalies), "goalies"))
	mux.HandleFunc("/api/snapshot", MetricsMiddleware(cors(s.HandleSnapshot), "snapshot"))
	mux.HandleFunc("/healthz", MetricsMiddleware(HandleHealth, "healthz"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

// HandleGames serves GET /api/games. Partial and empty results are 200; only a
// pipeline failure is 500.
func (s *Server) HandleGames(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	resp, err := s.builder.Build(ctx)
	if err != nil {
		s.logger.Error("api: build games", "error", err)
		writeJSON(w, http.StatusInternalServerError, pipeline.Failure(err, s.builder.Now()))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type goaliesResponse struct {
	Success   bool            `json:"success"`
	Goalies   []goalie.Record `json:"goalies"`
	Timestamp string          `json:"timestamp"`
}

// HandleGoalies serves GET /api/goalies.
func (s *Server) HandleGoalies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	writeJSON(w, http.StatusOK, goaliesResponse{
		Success:   true,
		Goalies:   s.builder.Goalies(ctx),
		Timestamp: s.builder.Now().UTC().Format(time.RFC3339),
	})
}

// HandleSnapshot serves the last scheduled snapshot verbatim.
func (s *Server) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeError(w, http.StatusNotFound, cache.ErrNoSnapshot)
		return
	}
	raw, err := s.snapshots.Raw(r.Context())
	switch {
	case errors.Is(err, cache.ErrNoSnapshot):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.logger.Error("api: read snapshot", "error", err)
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// HandleHealth handles GET /healthz.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// cors allows any origin, answers preflight with 204 and rejects non-GET methods.
func cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet, http.MethodHead:
			next(w, r)
		default:
			h.Set("Allow", "GET, OPTIONS")
			writeError(w, http.StatusMethodNotAllowed, nil)
		}
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}
