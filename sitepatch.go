package sitepatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jpalmerr/sitepatch/internal/patcher"
	"github.com/jpalmerr/sitepatch/internal/server"
	"github.com/jpalmerr/sitepatch/internal/static"
	"github.com/jpalmerr/sitepatch/internal/store"
)

const (
	defaultPort            = 8080
	defaultShutdownTimeout = 5 * time.Second
	defaultAllowedOrigin   = "*"
	defaultMaxBodyBytes    = 10 << 20
)

// Server serves a static site and rewrites its main document on request.
//
// Server is created using [New] with functional options and started with
// [Server.Start].
//
// The typical lifecycle is:
//
//	srv, err := sitepatch.New(sitepatch.WithRoot("./site"))
//	if err != nil {
//	    slog.Error("failed to create server", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	srv.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type Server struct {
	port            int
	marker          patcher.Marker
	scanMode        patcher.ScanMode
	allowedOrigin   string
	maxBodyBytes    int64
	shutdownTimeout time.Duration
	logger          *slog.Logger
	saveCallbacks   []func(SaveResult)

	resolver *static.Resolver
	document *store.FileDocument
}

// New creates a new [Server] instance with the given options.
//
// All options have sensible defaults:
//   - Root: the current working directory
//   - Document: index.html
//   - Port: 8080
//   - Marker: const PROJECTS, matched quote-aware
//
// Returns an error if any option is invalid or the root is not a directory.
// A missing document is not an error here; saves report it per request.
func New(opts ...Option) (*Server, error) {
	cfg := &spConfig{
		port:            defaultPort,
		document:        static.DefaultDocument,
		marker:          patcher.DefaultMarker(),
		scanMode:        patcher.ScanQuoteAware,
		allowedOrigin:   defaultAllowedOrigin,
		maxBodyBytes:    defaultMaxBodyBytes,
		shutdownTimeout: defaultShutdownTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		cfg.root = wd
	}

	resolver, err := static.NewResolver(cfg.root, cfg.document)
	if err != nil {
		return nil, err
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		port:            cfg.port,
		marker:          cfg.marker,
		scanMode:        cfg.scanMode,
		allowedOrigin:   cfg.allowedOrigin,
		maxBodyBytes:    cfg.maxBodyBytes,
		shutdownTimeout: cfg.shutdownTimeout,
		logger:          logger,
		saveCallbacks:   cfg.saveCallbacks,
		resolver:        resolver,
		document:        store.NewFileDocument(resolver.DocumentPath()),
	}, nil
}

// Start serves the site and the save endpoint.
//
// Start is a blocking call that runs until the provided context is cancelled.
// For signal handling, use [signal.NotifyContext]:
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//	srv.Start(ctx)
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails to start.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("sitepatch starting", "root", s.resolver.Root(), "document", s.document.Path())
	s.logger.Info("site available", "url", fmt.Sprintf("http://localhost:%d", s.port))
	s.logger.Info("save endpoint ready",
		"url", fmt.Sprintf("http://localhost:%d%s", s.port, server.SavePath),
		"marker", s.marker.String(),
		"scan", s.scanMode.String(),
	)

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	if _, err := os.Stat(s.document.Path()); err != nil {
		s.logger.Warn("document not found, saves will fail until it exists", "path", s.document.Path())
	}

	hub := store.NewMemoryHub(0)
	httpServer := server.NewServer(server.Config{
		Port:            s.port,
		AllowedOrigin:   s.allowedOrigin,
		MaxBodyBytes:    s.maxBodyBytes,
		ShutdownTimeout: s.shutdownTimeout,
		PatchOptions:    s.patchOptions(),
		OnSave:          s.dispatchSave,
	}, s.resolver, s.document, hub, s.logger)

	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	<-httpServer.Done()
	s.logger.Info("sitepatch stopped")
	return nil
}

// Projects returns the records currently stored in the document's literal.
//
// The literal must be JSON-compatible (double-quoted keys and strings);
// comments and trailing commas are tolerated.
func (s *Server) Projects() ([]map[string]any, error) {
	text, err := s.document.Read()
	if err != nil {
		return nil, err
	}

	records, err := patcher.Extract(text, s.patchOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from %s: %w", s.marker, s.document.Path(), err)
	}

	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out, nil
}

// Check verifies that the document exists and contains a complete literal
// that a save would be able to rewrite.
func (s *Server) Check() error {
	text, err := s.document.Read()
	if err != nil {
		return err
	}
	if _, err := patcher.Patch(text, nil, patcher.Auxiliary{}, s.patchOptions()...); err != nil {
		return fmt.Errorf("document %s: %w", s.document.Path(), err)
	}
	return nil
}

// Root returns the absolute site root.
func (s *Server) Root() string {
	return s.resolver.Root()
}

// DocumentPath returns the absolute path of the document rewritten by saves.
func (s *Server) DocumentPath() string {
	return s.document.Path()
}

// Port returns the configured HTTP port.
func (s *Server) Port() int {
	return s.port
}

// Marker returns the literal anchor saves look for, for example "const PROJECTS".
func (s *Server) Marker() string {
	return s.marker.Anchor()
}

// ScanMode returns the bracket matching mode, "quote-aware" or "naive".
func (s *Server) ScanMode() string {
	return s.scanMode.String()
}

func (s *Server) patchOptions() []patcher.Option {
	return []patcher.Option{
		patcher.WithMarker(s.marker),
		patcher.WithScanMode(s.scanMode),
	}
}

// dispatchSave converts a store event to the public type and runs callbacks.
func (s *Server) dispatchSave(event store.SaveEvent) {
	if len(s.saveCallbacks) == 0 {
		return
	}
	result := SaveResult{
		RequestID:         event.ID,
		Document:          event.Document,
		Count:             event.Count,
		Bytes:             event.Bytes,
		BackgroundUpdated: event.BackgroundUpdated,
		TitleUpdated:      event.TitleUpdated,
		SavedAt:           event.SavedAt,
	}
	for _, cb := range s.saveCallbacks {
		invokeCallbackSafe(cb, result, s.logger)
	}
}

// invokeCallbackSafe calls a save callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(SaveResult), result SaveResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("save callback panicked",
				"panic", r,
				"request_id", result.RequestID,
				"document", result.Document,
			)
		}
	}()
	cb(result)
}
