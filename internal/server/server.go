package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jpalmerr/sitepatch/internal/patcher"
	"github.com/jpalmerr/sitepatch/internal/static"
	"github.com/jpalmerr/sitepatch/internal/store"
)

// Routes served by the dispatcher. Any other path is a static file.
const (
	SavePath     = "/save-projects"
	ProjectsPath = "/api/projects"
	EventsPath   = "/api/events"
	SocketPath   = "/ws"
	HealthPath   = "/healthz"
)

const (
	// DefaultMaxBodyBytes caps the size of a save request body.
	DefaultMaxBodyBytes int64 = 10 << 20

	// DefaultShutdownTimeout bounds graceful shutdown of in-flight requests.
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultAllowedOrigin is sent in Access-Control-Allow-Origin.
	DefaultAllowedOrigin = "*"

	// RequestIDHeader carries the id assigned to every request.
	RequestIDHeader = "X-Request-Id"

	readHeaderTimeout = 10 * time.Second

	allowMethods = "GET, POST, OPTIONS"
	allowHeaders = "Content-Type"
)

// Config holds the server settings that do not come from its collaborators.
type Config struct {
	// Port is the TCP port to listen on. Zero picks a free port.
	Port int

	// AllowedOrigin is the Access-Control-Allow-Origin value.
	// Defaults to [DefaultAllowedOrigin].
	AllowedOrigin string

	// MaxBodyBytes caps save request bodies. Defaults to [DefaultMaxBodyBytes].
	MaxBodyBytes int64

	// ShutdownTimeout bounds graceful shutdown. Defaults to [DefaultShutdownTimeout].
	ShutdownTimeout time.Duration

	// PatchOptions select the marker and scan mode used on the document.
	PatchOptions []patcher.Option

	// OnSave is called after each successful save, once the event has been
	// published. It runs on the request goroutine.
	OnSave func(store.SaveEvent)
}

// Server handles HTTP requests for the site and the save API.
//
// Server implements [http.Handler] with its own dispatcher rather than an
// [http.ServeMux]: ServeMux cleans ".." out of request paths and redirects,
// which would hide traversal attempts from the static resolver.
type Server struct {
	cfg      Config
	resolver *static.Resolver
	doc      store.Document
	hub      store.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// saveMu serializes read-modify-write cycles on the document.
	saveMu sync.Mutex

	httpServer *http.Server
	addr       net.Addr
	done       chan struct{}
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - cfg: listener, limits and patch settings; zero fields take defaults
//   - resolver: maps request paths to files under the site root
//   - doc: the document rewritten by the save endpoint
//   - hub: receives a [store.SaveEvent] for every successful save
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(cfg Config, resolver *static.Resolver, doc store.Document, hub store.Hub, logger *slog.Logger) *Server {
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = DefaultAllowedOrigin
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		cfg:      cfg,
		resolver: resolver,
		doc:      doc,
		hub:      hub,
		logger:   logger,
		done:     make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown bounded by the
// configured shutdown timeout. [Server.Done] is closed once shutdown finishes.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		close(s.done)
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}
	s.addr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// which ends long-running handlers like SSE and websockets.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		defer close(s.done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the listener address, or nil before [Server.Start] succeeds.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Done is closed when the server has shut down, or when Start failed.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// ServeHTTP dispatches on method and path.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

	h := w.Header()
	h.Set(RequestIDHeader, id)
	h.Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
	h.Set("Access-Control-Allow-Methods", allowMethods)
	h.Set("Access-Control-Allow-Headers", allowHeaders)

	switch {
	case r.Method == http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPost && r.URL.Path == SavePath:
		s.handleSave(w, r)
	case r.Method == http.MethodGet && r.URL.Path == ProjectsPath:
		s.handleProjects(w, r)
	case r.Method == http.MethodGet && r.URL.Path == EventsPath:
		s.handleSSE(w, r)
	case r.Method == http.MethodGet && r.URL.Path == SocketPath:
		s.handleWebSocket(w, r)
	case r.Method == http.MethodGet && r.URL.Path == HealthPath:
		s.handleHealth(w, r)
	default:
		s.handleStatic(w, r)
	}
}

type requestIDKey struct{}

// requestLogger returns the server logger tagged with the request id.
func (s *Server) requestLogger(r *http.Request) *slog.Logger {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return s.logger.With("request_id", id)
	}
	return s.logger
}

// requestID returns the id assigned by ServeHTTP, generating one for
// handlers invoked directly.
func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return id
	}
	return uuid.NewString()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowedOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == s.cfg.AllowedOrigin
}
