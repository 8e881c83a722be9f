package config

import (
	"path/filepath"
	"time"
)

const (
	DefaultSearchDepth    = 10
	DefaultServerDir      = "server"
	DefaultEventsSubject  = "akini.builds"
	DefaultMetricsPath    = "/metrics"
	defaultManifestHeader = "# akini project manifest\n"
)

func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = "akini"
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if cfg.Watch.SearchDepth == 0 {
		cfg.Watch.SearchDepth = DefaultSearchDepth
	}
	if cfg.Watch.ServerDir == "" {
		cfg.Watch.ServerDir = DefaultServerDir
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultEventsSubject
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// FullRebuildEvery returns the parsed periodic rebuild interval, or zero when disabled.
func (c *Config) FullRebuildEvery() time.Duration {
	if c.Watch.FullRebuildInterval == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Watch.FullRebuildInterval)
	return d
}

// ResolvePath makes p absolute relative to home; empty stays empty.
func ResolvePath(home, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(home, p)
}
