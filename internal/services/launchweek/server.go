// Package launchweek hosts the launch week ticket page service.
package launchweek

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/launchweek/internal/platform/timeouts"
	"github.com/louisbranch/launchweek/internal/services/launchweek/app"
	"github.com/louisbranch/launchweek/internal/services/launchweek/auth"
	module "github.com/louisbranch/launchweek/internal/services/launchweek/module"
	"github.com/louisbranch/launchweek/internal/services/launchweek/modules"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/httpx"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/observability"
	"github.com/louisbranch/launchweek/internal/services/launchweek/platform/requestmeta"
	"github.com/louisbranch/launchweek/internal/services/launchweek/presence"
	"github.com/louisbranch/launchweek/internal/services/launchweek/profile"
	"github.com/louisbranch/launchweek/internal/services/launchweek/render"
	"github.com/louisbranch/launchweek/internal/services/launchweek/routepath"
	lwstatic "github.com/louisbranch/launchweek/internal/services/launchweek/static"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
	"go.uber.org/zap"
)

// Config defines startup inputs for the launch week service.
type Config struct {
	HTTPAddr  string
	Directory storage.Directory
	Tokens    *auth.Tokens
	Hub       *auth.Hub

	HookSecret          string
	PublicURL           string
	TrustForwardedProto bool
	GoldenThreshold     int
	PresenceLimit       int
	PresenceTimeout     time.Duration
	Heartbeat           time.Duration

	Logger *zap.Logger
	Now    func() time.Time
}

// Server hosts the launch week HTTP surface and lifecycle.
type Server struct {
	httpAddr      string
	httpServer    *http.Server
	hub           *auth.Hub
	cancelStreams context.CancelFunc
}

// NewHandler builds the root handler from the default module registry.
func NewHandler(cfg Config) (http.Handler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Hub == nil {
		cfg.Hub = auth.NewHub()
	}
	sessions := newSessionResolver(cfg.Tokens, cfg.Now)
	deps := module.Dependencies{
		Directory: cfg.Directory,
		Resolver: profile.NewResolver(profile.ResolverConfig{
			Lookup:          lookupOrNil(cfg.Directory),
			GoldenThreshold: cfg.GoldenThreshold,
			Timeout:         timeouts.DirectoryLookup,
			Logger:          logger.Named("profile"),
		}),
		Presence: presence.NewAggregator(presence.Config{
			Source:  sourceOrNil(cfg.Directory),
			Limit:   cfg.PresenceLimit,
			Timeout: cfg.PresenceTimeout,
			Logger:  logger.Named("presence"),
			Now:     cfg.Now,
		}),
		Renderer:       render.New(render.WithLogger(logger.Named("render"))),
		Tokens:         cfg.Tokens,
		Hub:            cfg.Hub,
		HookSecret:     strings.TrimSpace(cfg.HookSecret),
		PublicURL:      strings.TrimSpace(cfg.PublicURL),
		SchemePolicy:   requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto},
		Heartbeat:      cfg.Heartbeat,
		ResolveSession: sessions.resolveSession,
		Logger:         logger,
		Now:            cfg.Now,
	}
	h, err := app.BuildRootHandler(app.Config{
		Dependencies:     deps,
		PublicModules:    modules.DefaultPublicModules(),
		ProtectedModules: modules.DefaultProtectedModules(),
	})
	if err != nil {
		return nil, err
	}
	rootMux := http.NewServeMux()
	rootMux.Handle(routepath.StaticPrefix, http.StripPrefix(routepath.StaticPrefix, http.FileServer(http.FS(lwstatic.FS))))
	rootMux.Handle("/", h)
	return httpx.Chain(rootMux,
		httpx.RecoverPanic(logger),
		httpx.RequestID(),
		withRequestSessionState(),
		observability.RequestLogger(logger.Named("http")),
	), nil
}

// lookupOrNil keeps a nil directory from becoming a non-nil interface.
func lookupOrNil(directory storage.Directory) profile.Lookup {
	if directory == nil {
		return nil
	}
	return directory
}

func sourceOrNil(directory storage.Directory) presence.Source {
	if directory == nil {
		return nil
	}
	return directory
}

// NewServer validates config and constructs a launch week server.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if cfg.Hub == nil {
		cfg.Hub = auth.NewHub()
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose launch week handler: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	streamsCtx, cancelStreams := context.WithCancel(context.WithoutCancel(ctx))
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
		BaseContext:       func(net.Listener) context.Context { return streamsCtx },
	}
	// Event streams never finish on their own; end them so Shutdown can drain.
	httpServer.RegisterOnShutdown(cancelStreams)
	return &Server{
		httpAddr:      httpAddr,
		httpServer:    httpServer,
		hub:           cfg.Hub,
		cancelStreams: cancelStreams,
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("launch week server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown launch week http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve launch week http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	s.cancelStreams()
	_ = s.httpServer.Close()
	if s.hub != nil {
		s.hub.Close()
	}
}
