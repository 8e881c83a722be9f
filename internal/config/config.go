// Package config loads the project manifest (akini.yaml) that marks the project
// root and carries the ambient settings of the CLI: logging, watch behaviour,
// isolation limits and the optional journal, metrics and event sinks.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
)

// ManifestFile is the marker file identifying the project root.
const ManifestFile = "akini.yaml"

// Conventional directory names below the project root.
const (
	PagesDir      = "pages"
	ComponentsDir = "components"
	BuildDir      = "build"
)

// Config represents the parsed manifest.
type Config struct {
	Name      string          `yaml:"name,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Watch     WatchConfig     `yaml:"watch,omitempty"`
	Isolation IsolationConfig `yaml:"isolation,omitempty"`
	Events    EventsConfig    `yaml:"events,omitempty"`
	Journal   JournalConfig   `yaml:"journal,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	SearchDepth         int    `yaml:"search_depth,omitempty"`
	Server              bool   `yaml:"server,omitempty"`
	ServerDir           string `yaml:"server_dir,omitempty"`
	FullRebuildInterval string `yaml:"full_rebuild_interval,omitempty"`
}

// IsolationConfig configures how page builds are spawned.
type IsolationConfig struct {
	// MaxConcurrent bounds the number of running child builds; 0 means unbounded.
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`
	// Command replaces the default "<self> compile --definition" launcher.
	// The page definition path is appended as the last argument.
	Command []string `yaml:"command,omitempty"`
}

// EventsConfig configures publishing of build lifecycle events to NATS.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// JournalConfig configures the SQLite build journal.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint served during watch.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// Load reads the manifest in home. Environment files in home are applied first
// so that ${VAR} references in the manifest can be resolved.
func Load(home string) (*Config, error) {
	loadEnvFiles(home)

	path := filepath.Join(home, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, foundationerrors.NotFoundError("manifest not found").
				WithContext("path", path).
				WithCause(err).
				Build()
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "read manifest").
			WithContext("path", path).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes manifest bytes, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "unmarshal manifest").Build()
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
