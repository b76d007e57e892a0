// Package server wires the throttle middleware into an HTTP front for an
// upstream API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quotaflow/quotad/internal/config"
	"github.com/quotaflow/quotad/pkg/throttle"
)

// Server is the quotad HTTP front: health and metrics endpoints plus a
// throttled reverse proxy to the upstream API.
type Server struct {
	router chi.Router
	server *http.Server
	logger *zap.Logger
	cfg    config.ServerConfig
}

// New assembles the middleware chain and routes. The throttle middleware
// wraps only the proxied routes; health and metrics stay unthrottled.
func New(cfg *config.Config, logger *zap.Logger, th *throttle.Throttle) (*Server, error) {
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url %q: %w", cfg.Upstream, err)
	}
	if upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("upstream url %q must be absolute", cfg.Upstream)
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(RequestID)
	r.Use(AccessLog(logger))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		logger.Error("upstream proxy error",
			zap.String("request_id", GetRequestID(req.Context())),
			zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
	}

	r.Group(func(r chi.Router) {
		r.Use(th.Middleware)
		r.Handle("/*", proxy)
	})

	return &Server{
		router: r,
		logger: logger,
		cfg:    cfg.Server,
	}, nil
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.logger.Info("starting HTTP server", zap.String("addr", s.cfg.Listen))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
