package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/ttlrenew/auth"
	"github.com/jonwraymond/ttlrenew/health"
	"github.com/jonwraymond/ttlrenew/observe"
	"github.com/jonwraymond/ttlrenew/renewal"
)

// DefaultMaxBodyBytes bounds a /v1/renew request body.
const DefaultMaxBodyBytes = 8 << 20

// Options configures a Server.
type Options struct {
	Runner   *Runner
	Defaults renewal.Config
	Health   *health.Aggregator

	// Authenticator is optional; nil accepts anonymous requests.
	Authenticator auth.Authenticator
	// Authorizer is optional; nil skips role checks.
	Authorizer auth.Authorizer

	// Metrics serves /metrics when set.
	Metrics http.Handler

	Logger       observe.Logger
	MaxBodyBytes int64
}

// Server is the HTTP surface.
type Server struct {
	opts    Options
	handler http.Handler
}

// New builds the route table.
func New(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, errors.New("server: runner is required")
	}
	if opts.Health == nil {
		opts.Health = health.NewAggregator(0)
	}
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{opts: opts}

	mux := http.NewServeMux()
	guard := auth.Middleware(opts.Authenticator, opts.Authorizer, auth.ActionRenew, s.authError)
	mux.Handle("POST /v1/renew", guard(http.HandlerFunc(s.handleRenew)))
	health.RegisterHandlers(mux, opts.Health)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	s.handler = mux
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	batch, err := renewal.DecodeBatch(body, s.opts.Defaults)
	if err != nil {
		s.fail(ctx, w, err)
		return
	}

	res, err := s.opts.Runner.Renew(ctx, "http", batch)
	if err != nil {
		s.fail(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) fail(ctx context.Context, w http.ResponseWriter, err error) {
	status, kind := Classify(err)
	if status >= http.StatusInternalServerError {
		s.opts.Logger.Warn(ctx, "renew request failed",
			observe.F("status", status), observe.F("kind", kind), observe.F("error", err))
	}
	writeStatusError(w, status, kind, err)
}

func (s *Server) authError(w http.ResponseWriter, r *http.Request, status int, err error) {
	kind := KindAuthentication
	switch status {
	case http.StatusForbidden:
		kind = KindAuthorization
	case http.StatusInternalServerError:
		kind = KindInternal
	}
	s.opts.Logger.Info(r.Context(), "renew request rejected",
		observe.F("status", status), observe.F("error", err))
	writeStatusError(w, status, kind, err)
}

// Run serves on addr until ctx is done, then shuts down gracefully within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.opts.Logger.Info(gctx, "http server listening", observe.F("addr", ln.Addr().String()))
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.opts.Logger.Info(sctx, "http server shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
