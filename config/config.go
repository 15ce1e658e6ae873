// Package config provides YAML configuration parsing for sitepatch.
//
// This package enables running sitepatch as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	root: ${SITE_ROOT:-./site}
//	document: index.html
//
//	marker:
//	  keyword: const
//	  name: PROJECTS
//	  scan: quote-aware
//
//	cors_origin: "*"
//	max_body_bytes: 10485760
//	shutdown_timeout: 5s
//	log_level: info
//	log_format: json
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/sitepatch/internal/patcher"
)

const (
	defaultPort            = 8080
	defaultDocument        = "index.html"
	defaultCORSOrigin      = "*"
	defaultMaxBodyBytes    = 10 << 20
	defaultShutdownTimeout = 5 * time.Second
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
)

// Config is the root configuration structure for sitepatch.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// Root is the site directory. Empty means the current working directory.
	// A relative root in a file read by [Load] is relative to that file.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Root string `yaml:"root"`

	// Document is the file served at "/" and rewritten by saves, relative
	// to Root. Defaults to index.html. Supports environment variables.
	Document string `yaml:"document"`

	// Marker names the literal saves rewrite. Defaults to const PROJECTS.
	Marker MarkerConfig `yaml:"marker"`

	// CORSOrigin is sent as Access-Control-Allow-Origin. Defaults to "*".
	// Supports environment variables.
	CORSOrigin string `yaml:"cors_origin"`

	// MaxBodyBytes caps save request bodies. Defaults to 10 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ShutdownTimeout bounds graceful shutdown. Defaults to 5s.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`

	// LogFormat is json or text. Defaults to json.
	LogFormat string `yaml:"log_format"`
}

// MarkerConfig selects the literal assignment inside the document.
//
// It supports two formats in YAML:
//
// Shorthand string (the anchor text as it appears in the document):
//
//	marker: const PROJECTS
//	marker: window_items
//
// Structured object:
//
//	marker:
//	  keyword: let
//	  name: ITEMS
//	  scan: naive
type MarkerConfig struct {
	// Keyword is const, let, var, or empty for a bare name.
	Keyword string

	// Name is the identifier assigned to.
	Name string

	// Scan is the bracket matching mode: quote-aware (default) or naive.
	Scan string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for MarkerConfig.
func (m *MarkerConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return m.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion; a nil keyword keeps the default
		var raw struct {
			Keyword *string `yaml:"keyword"`
			Name    string  `yaml:"name"`
			Scan    string  `yaml:"scan"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		m.Keyword = patcher.DefaultMarker().Keyword
		if raw.Keyword != nil {
			m.Keyword = *raw.Keyword
		}
		m.Name = raw.Name
		m.Scan = raw.Scan
		return nil
	}

	return fmt.Errorf("marker must be a string or object, got %v", node.Kind)
}

// parseShorthand parses "keyword name" or a bare "name".
func (m *MarkerConfig) parseShorthand(s string) error {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return nil
	case 1:
		m.Keyword, m.Name = "", fields[0]
	case 2:
		m.Keyword, m.Name = fields[0], fields[1]
	default:
		return fmt.Errorf("invalid marker %q (expected 'name' or 'keyword name')", s)
	}
	return nil
}

// PatchMarker returns the marker in the form the patcher uses.
func (m MarkerConfig) PatchMarker() patcher.Marker {
	return patcher.Marker{Keyword: m.Keyword, Name: m.Name}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// A relative root is resolved against the directory containing the file,
// so a config can live next to the site it serves.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if cfg.Root != "" && !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(path), cfg.Root)
	}
	return cfg, nil
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in Root, Document and CORSOrigin.
// Defaults are applied for every unset field.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Document == "" {
		c.Document = defaultDocument
	}
	if c.Marker.Name == "" && c.Marker.Keyword == "" {
		c.Marker.Keyword = patcher.DefaultMarker().Keyword
	}
	if c.Marker.Name == "" {
		c.Marker.Name = patcher.DefaultMarker().Name
	}
	if c.CORSOrigin == "" {
		c.CORSOrigin = defaultCORSOrigin
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = Duration(defaultShutdownTimeout)
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	var err error

	if c.Root, err = expandEnvVars(c.Root); err != nil {
		return fmt.Errorf("root: %w", err)
	}
	if c.Document, err = expandEnvVars(c.Document); err != nil {
		return fmt.Errorf("document: %w", err)
	}
	if c.CORSOrigin, err = expandEnvVars(c.CORSOrigin); err != nil {
		return fmt.Errorf("cors_origin: %w", err)
	}

	return c.Validate()
}

// Validate checks field ranges and combinations. [Parse] calls it; callers
// that modify a Config afterwards (for example from CLI flags) should call
// it again.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if !filepath.IsLocal(filepath.FromSlash(c.Document)) {
		return fmt.Errorf("document must be a relative path inside the root, got %q", c.Document)
	}

	if err := c.Marker.PatchMarker().Validate(); err != nil {
		return fmt.Errorf("marker: %w", err)
	}
	if _, err := patcher.ParseScanMode(c.Marker.Scan); err != nil {
		return fmt.Errorf("marker: %w", err)
	}

	if c.CORSOrigin == "" {
		return fmt.Errorf("cors_origin cannot be empty")
	}

	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes cannot be negative, got %d", c.MaxBodyBytes)
	}

	if c.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout.Duration())
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}

	return nil
}

// ParseLevel converts a log level name to a [slog.Level].
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
	}
}
