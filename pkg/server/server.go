// Package server exposes the agent runtime over HTTP. Runs are created by
// POSTing to an agent endpoint; a run that pauses for user input is resumed
// by POSTing the user's answers against its run ID.
package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agentd/pkg/agent"
	"agentd/pkg/config"
	"agentd/pkg/contextmgr"
	"agentd/pkg/logx"
	"agentd/pkg/metrics"
	"agentd/pkg/persistence"
)

// shutdownTimeout bounds graceful drain of in-flight requests.
const shutdownTimeout = 5 * time.Second

// Runner executes agent runs. *agent.Agent satisfies it; tests substitute
// scripted implementations.
type Runner interface {
	Run(ctx context.Context, input string) (agent.Result, error)
	Resume(ctx context.Context, history []contextmgr.Message, pendingTool, pendingPayload, userInput string) (agent.Result, error)
}

// UsageService reports aggregated LLM usage per agent.
// *metrics.QueryService satisfies it.
type UsageService interface {
	GetAgentUsage(ctx context.Context, agent string) (*metrics.AgentUsage, error)
	GetAgentUsageByModel(ctx context.Context, agent string) (map[string]*metrics.AgentUsage, error)
}

// Server is the HTTP API server for agent runs.
type Server struct {
	cfg     *config.ServerConfig
	agents  map[string]Runner
	runs    *persistence.RunStore
	metrics http.Handler
	usage   UsageService
	logger  *logx.Logger

	httpServer *http.Server
}

// New creates a server over the given agents and run store.
// The metrics handler may be nil, in which case the default Prometheus
// registry is exposed.
func New(cfg *config.ServerConfig, agents map[string]Runner, runs *persistence.RunStore, metricsHandler http.Handler) *Server {
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	return &Server{
		cfg:     cfg,
		agents:  agents,
		runs:    runs,
		metrics: metricsHandler,
		logger:  logx.NewLogger("server"),
	}
}

// SetUsageService attaches a usage reporting backend. Without one the
// usage endpoint answers 503.
func (s *Server) SetUsageService(usage UsageService) {
	s.usage = usage
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/agents/", s.requireAuth(s.handleAgentRuns))
	mux.HandleFunc("/v1/runs", s.requireAuth(s.handleListRuns))
	mux.HandleFunc("/v1/runs/", s.requireAuth(s.handleRun))
	mux.HandleFunc("/v1/usage", s.requireAuth(s.handleUsage))
	mux.HandleFunc("/api/logs", s.requireAuth(s.handleLogs))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", s.metrics)
}

// Handler returns the complete HTTP handler, routes plus request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(mux)
}

// Start runs the HTTP server until the context is canceled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening on http://%s", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}

// requireAuth wraps a handler with basic auth when a username is configured.
// The password comes from the environment so it never lands in config files.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.BasicAuthUser == "" {
			next(w, r)
			return
		}

		want := os.Getenv(config.EnvAuthPassword)
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.cfg.BasicAuthUser)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(want)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="agentd"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// statusWriter captures the response code for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// logRequests logs one line per request with method, path, status and latency.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("%s %s -> %d (%s)", r.Method, r.URL.Path, sw.status, time.Since(start).Round(time.Millisecond))
	})
}
