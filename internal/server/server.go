// Package server wires together HTTP routes, dependency injection, and the
// signed link workflow: upload an object, hand out a signed URL for it, and
// serve the object to whoever presents a URL that still verifies.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/LinkSeal/internal/config"
	"github.com/dharsanguruparan/LinkSeal/internal/httpsign"
	"github.com/dharsanguruparan/LinkSeal/internal/model"
	"github.com/dharsanguruparan/LinkSeal/internal/ratelimit"
	"github.com/dharsanguruparan/LinkSeal/internal/repository"
	"github.com/dharsanguruparan/LinkSeal/internal/signing"
	"github.com/dharsanguruparan/LinkSeal/internal/storage"
)

// AccessRecorder receives one event per signed URL presentation. Both
// processing.Processor and queue.Recorder satisfy it.
type AccessRecorder interface {
	Record(ctx context.Context, ev model.AccessEvent)
}

// Deps are the collaborators a Server needs. Recorder and Limiter are
// optional.
type Deps struct {
	Signer   *signing.Signature
	Objects  storage.ObjectStore
	Audit    repository.AuditLog
	Recorder AccessRecorder
	Limiter  ratelimit.Limiter
	Logger   *zap.Logger
}

// Server hosts HTTP handlers for LinkSeal.
type Server struct {
	cfg      *config.Config
	signer   *signing.Signature
	objects  storage.ObjectStore
	audit    repository.AuditLog
	recorder AccessRecorder
	limiter  ratelimit.Limiter
	logger   *zap.Logger
	metrics  *metrics
}

// New creates a configured server.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("server: config is required")
	case deps.Signer == nil:
		return nil, errors.New("server: signer is required")
	case deps.Objects == nil:
		return nil, errors.New("server: object store is required")
	case deps.Audit == nil:
		return nil, errors.New("server: audit log is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		signer:   deps.Signer,
		objects:  deps.Objects,
		audit:    deps.Audit,
		recorder: deps.Recorder,
		limiter:  deps.Limiter,
		logger:   logger,
		metrics:  newMetrics(),
	}, nil
}

// Serve launches the HTTP server until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		// When the context is cancelled we gracefully shutdown with a timeout.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()
	s.logger.Info("server listening", zap.String("addr", s.cfg.Address), zap.String("public_url", s.cfg.PublicURL))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Routes builds the router. Management endpoints need a bearer JWT; the
// download endpoint is authorized by the signed URL alone.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Group(func(api chi.Router) {
		api.Use(jwtAuth(s.cfg.JWTSecret))
		api.Post("/objects", s.handleUpload)
		api.Get("/objects/{id}/access", s.handleAccessLog)
		api.Post("/links", s.handleCreateLink)
		api.Get("/links/{id}", s.handleGetLink)
		api.Post("/verify", s.handleVerify)
	})

	r.With(
		s.rateLimit,
		httpsign.Middleware(s.signer,
			httpsign.WithBaseURL(s.cfg.PublicURL),
			httpsign.WithAddressReader(s.clientAddr),
			httpsign.WithObserver(s.observe),
			httpsign.WithLogger(s.logger),
		),
	).Get("/d/{id}", s.handleDownload)

	return r
}

func (s *Server) clientAddr(r *http.Request) string {
	if s.cfg.TrustProxy {
		return httpsign.ForwardedFor(r)
	}
	return httpsign.RemoteAddr(r)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	// Headers must be set before WriteHeader; the body follows.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response failed", zap.Error(err))
	}
}
