package config

import (
	"io"
	"log/slog"

	"github.com/jpalmerr/sitepatch"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The returned options are validated again by [sitepatch.New]. A nil
// logger leaves the SDK default in place.
func BuildOptions(cfg *Config, logger *slog.Logger) []sitepatch.Option {
	opts := []sitepatch.Option{
		sitepatch.WithPort(cfg.Port),
		sitepatch.WithDocument(cfg.Document),
		sitepatch.WithMarker(cfg.Marker.Keyword, cfg.Marker.Name),
		sitepatch.WithScanMode(cfg.Marker.Scan),
		sitepatch.WithAllowedOrigin(cfg.CORSOrigin),
		sitepatch.WithShutdownTimeout(cfg.ShutdownTimeout.Duration()),
	}

	// an empty root leaves the SDK on the working directory
	if cfg.Root != "" {
		opts = append(opts, sitepatch.WithRoot(cfg.Root))
	}
	if cfg.MaxBodyBytes > 0 {
		opts = append(opts, sitepatch.WithMaxBodyBytes(cfg.MaxBodyBytes))
	}
	if logger != nil {
		opts = append(opts, sitepatch.WithLogger(logger))
	}

	return opts
}

// NewLogger builds the logger described by LogLevel and LogFormat, writing to w.
func NewLogger(cfg *Config, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
}
