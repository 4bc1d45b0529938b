package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"beacon/internal/instrumentation"
	"beacon/internal/logging"
	"beacon/internal/store"
	"beacon/internal/triage"
)

const (
	// DefaultAddr is the default bind address for the API server.
	DefaultAddr = "127.0.0.1:8484"

	defaultDigestLimit = 50
	defaultPageLimit   = 100

	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server is the HTTP API and digest page server.
type Server struct {
	sc         *ServerContext
	addr       string
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	health     *HealthChecker
	httpServer *http.Server
}

// New creates a Server. metrics may be nil.
func New(sc *ServerContext, addr string, logger *slog.Logger, metrics *instrumentation.Metrics) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}

	return &Server{
		sc:      sc,
		addr:    addr,
		logger:  logger,
		metrics: metrics,
		health:  NewHealthChecker(sc),
	}
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleDigestPage)
	mux.HandleFunc("GET /api/v1/digest", s.handleDigest)
	mux.HandleFunc("GET /api/v1/messages/{fingerprint}", s.handleMessage)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)
	s.health.RegisterHealthEndpoints(mux)

	return s.withMetrics(mux)
}

// Start runs the server until it is shut down. Blocking.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	s.logger.Info("starting API server", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer != nil {
		s.logger.Info("shutting down API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured bind address.
func (s *Server) Addr() string {
	return s.addr
}

// withMetrics records request counts and latency per route pattern.
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		// The route pattern keeps label cardinality bounded; unmatched
		// requests fall back to a constant.
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// DigestResponse is the JSON payload of GET /api/v1/digest.
type DigestResponse struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	Count       int              `json:"count"`
	Results     []*triage.Result `json:"results"`
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.listOptions(w, r, defaultDigestLimit)
	if !ok {
		return
	}

	results, err := s.sc.Store().ListTriage(r.Context(), opts)
	if err != nil {
		s.logger.Error("digest query failed", logging.Operation("digest"), logging.Err(err))
		writeError(w, http.StatusInternalServerError, "failed to load digest")
		return
	}

	writeJSON(w, http.StatusOK, DigestResponse{
		GeneratedAt: time.Now().UTC(),
		Count:       len(results),
		Results:     results,
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.PathValue("fingerprint")

	result, err := s.sc.Store().GetTriage(r.Context(), fingerprint)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no triage record for this message")
		return
	}
	if err != nil {
		s.logger.Error("message lookup failed", logging.Operation("message_detail"), logging.Err(err))
		writeError(w, http.StatusInternalServerError, "failed to load message")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	summary, err := s.sc.Refresh(r.Context())
	if err != nil {
		s.logger.Error("refresh failed", logging.Operation("refresh"), logging.Err(err))
		writeError(w, http.StatusBadGateway, "pipeline run failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// listOptions parses digest filters from the query string. Writes the error
// response itself and returns ok=false on invalid input.
func (s *Server) listOptions(w http.ResponseWriter, r *http.Request, defaultLimit int) (store.ListOptions, bool) {
	opts := store.ListOptions{Limit: defaultLimit}
	q := r.URL.Query()

	if raw := q.Get("category"); raw != "" {
		c := triage.Category(raw)
		if triage.ParseCategory(raw) != c {
			writeError(w, http.StatusBadRequest, "unknown category: "+raw)
			return opts, false
		}
		opts.Category = c
	}

	if raw := q.Get("min_score"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "min_score must be an integer in 0..100")
			return opts, false
		}
		opts.MinScore = n
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return opts, false
		}
		opts.Limit = n
	}

	return opts, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
