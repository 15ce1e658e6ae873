package sitepatch

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jpalmerr/sitepatch/internal/patcher"
)

// spConfig holds mutable state during Server construction.
type spConfig struct {
	root            string
	port            int
	document        string
	marker          patcher.Marker
	scanMode        patcher.ScanMode
	allowedOrigin   string
	maxBodyBytes    int64
	shutdownTimeout time.Duration
	logger          *slog.Logger
	saveCallbacks   []func(SaveResult)
}

// Option is a function that configures a [Server] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*spConfig) error

// WithRoot sets the directory served as the site root.
//
// Defaults to the current working directory. The directory must exist when
// [New] is called.
//
// Returns an error if the path is empty.
func WithRoot(dir string) Option {
	return func(cfg *spConfig) error {
		if dir == "" {
			return errors.New("root cannot be empty")
		}
		cfg.root = dir
		return nil
	}
}

// WithPort sets the HTTP port.
//
// The site will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *spConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithDocument sets the document served at "/" and rewritten by saves,
// relative to the root. Defaults to "index.html".
//
// Example:
//
//	srv, err := sitepatch.New(
//	    sitepatch.WithRoot("./site"),
//	    sitepatch.WithDocument("portfolio.html"),
//	)
//
// Returns an error if the path is absolute or leaves the root.
func WithDocument(name string) Option {
	return func(cfg *spConfig) error {
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return fmt.Errorf("document must be a relative path inside the root, got %q", name)
		}
		cfg.document = name
		return nil
	}
}

// WithMarker selects the literal that saves rewrite.
//
// The document must contain "<keyword> <name> = [ ... ]", for example
// "const PROJECTS = [...]". Keyword is one of const, let, var, or empty to
// match the bare name. Defaults to const PROJECTS.
//
// Returns an error if name is not a JavaScript identifier or the keyword is
// not recognised.
func WithMarker(keyword, name string) Option {
	return func(cfg *spConfig) error {
		m := patcher.Marker{Keyword: keyword, Name: name}
		if err := m.Validate(); err != nil {
			return err
		}
		cfg.marker = m
		return nil
	}
}

// WithScanMode selects how the end of the literal is found.
//
// "quote-aware" (the default) ignores brackets inside string literals.
// "naive" counts every bracket character and is only needed for documents
// that depend on that behaviour.
//
// Returns an error for any other mode.
func WithScanMode(mode string) Option {
	return func(cfg *spConfig) error {
		m, err := patcher.ParseScanMode(mode)
		if err != nil {
			return err
		}
		cfg.scanMode = m
		return nil
	}
}

// WithAllowedOrigin sets the Access-Control-Allow-Origin header sent on
// every response. Defaults to "*".
//
// Returns an error if the origin is empty.
func WithAllowedOrigin(origin string) Option {
	return func(cfg *spConfig) error {
		if origin == "" {
			return errors.New("allowed origin cannot be empty")
		}
		cfg.allowedOrigin = origin
		return nil
	}
}

// WithMaxBodyBytes caps the size of a save request body. Larger requests
// are rejected with 413. Defaults to 10 MiB.
//
// Returns an error if n is zero or negative.
func WithMaxBodyBytes(n int64) Option {
	return func(cfg *spConfig) error {
		if n <= 0 {
			return errors.New("max body bytes must be positive")
		}
		cfg.maxBodyBytes = n
		return nil
	}
}

// WithShutdownTimeout bounds how long graceful shutdown waits for in-flight
// requests. Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithShutdownTimeout(d time.Duration) Option {
	return func(cfg *spConfig) error {
		if d <= 0 {
			return errors.New("shutdown timeout must be positive")
		}
		cfg.shutdownTimeout = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Server instance.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *spConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSaveCallback registers a function to be called after every successful save.
//
// The callback runs once the document is on disk. Multiple callbacks may be
// registered; they execute in registration order on the request goroutine,
// before the response is sent, so they must be quick. Long-running work
// should be dispatched to a separate goroutine.
//
// Panics within callbacks are recovered and logged; they do not fail the save.
//
// Example:
//
//	srv, err := sitepatch.New(
//	    sitepatch.WithSaveCallback(func(r sitepatch.SaveResult) {
//	        log.Printf("saved %d projects to %s", r.Count, r.Document)
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithSaveCallback(cb func(SaveResult)) Option {
	return func(cfg *spConfig) error {
		if cb == nil {
			return nil
		}
		cfg.saveCallbacks = append(cfg.saveCallbacks, cb)
		return nil
	}
}
