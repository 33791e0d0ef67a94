// Package webserver serves the JSON API, the HTML pages, the static assets
// and the event stream.
package webserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/swayamsankar/intern-app/internal/applicant"
	"github.com/swayamsankar/intern-app/internal/events"
	"github.com/swayamsankar/intern-app/internal/metrics"
	"github.com/swayamsankar/intern-app/internal/ratelimit"
	"github.com/swayamsankar/intern-app/internal/view"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxBodyBytes          = 64 << 10
	sseKeepAlive          = 25 * time.Second
)

type Options struct {
	Service  *applicant.Service
	Broker   *events.Broker
	Renderer *view.Renderer
	Limiter  ratelimit.Limiter
	// Proxies resolves the client address; nil keys on the peer address.
	Proxies *ratelimit.IPResolver
	Metrics *metrics.Metrics
	// Static holds the css/ and js/ assets served under /static/.
	Static         fs.FS
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

type Server struct {
	svc            *applicant.Service
	broker         *events.Broker
	renderer       *view.Renderer
	limiter        ratelimit.Limiter
	proxies        *ratelimit.IPResolver
	metrics        *metrics.Metrics
	static         fs.FS
	log            *slog.Logger
	requestTimeout time.Duration
	handler        http.Handler
}

func New(opts Options) *Server {
	s := &Server{
		svc:            opts.Service,
		broker:         opts.Broker,
		renderer:       opts.Renderer,
		limiter:        opts.Limiter,
		proxies:        opts.Proxies,
		metrics:        opts.Metrics,
		static:         opts.Static,
		log:            opts.Logger,
		requestTimeout: opts.RequestTimeout,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = defaultRequestTimeout
	}
	if s.broker == nil {
		s.broker = events.NewBroker()
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/applicants", s.handleListApplicants)
	mux.Handle("POST /api/applicants", s.rateLimit(http.HandlerFunc(s.handleCreateApplicant)))
	mux.HandleFunc("GET /api/applicants/{id}", s.handleGetApplicant)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/departments", s.handleDepartments)
	mux.HandleFunc("GET /api/events", s.handleSSE)
	mux.HandleFunc("OPTIONS /api/", handleCORS)
	mux.HandleFunc("/api/", handleAPINotFound)

	mux.Handle("GET /metrics", s.metrics.Handler())

	// Pages
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /register", s.handleRegister)
	mux.HandleFunc("GET /admin", s.handleAdmin)
	mux.HandleFunc("GET /admin/applicants/{id}", s.handleApplicantPage)
	if s.static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	}
	mux.HandleFunc("/", s.handlePageNotFound)

	return s.requestID(s.logRequests(s.observe(s.recoverer(corsMiddleware(mux)))))
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on addr until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Event streams never finish on their own.
	srv.RegisterOnShutdown(s.broker.CloseAll)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
