package config

import (
	"time"

	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
)

// Validate checks the manifest for values that cannot be applied.
func (c *Config) Validate() error {
	if c.Watch.SearchDepth < 1 {
		return foundationerrors.ValidationError("watch.search_depth must be at least 1").
			WithContext("value", c.Watch.SearchDepth).
			Build()
	}
	if c.Watch.FullRebuildInterval != "" {
		d, err := time.ParseDuration(c.Watch.FullRebuildInterval)
		if err != nil {
			return foundationerrors.ValidationError("watch.full_rebuild_interval is not a duration").
				WithContext("value", c.Watch.FullRebuildInterval).
				WithCause(err).
				Build()
		}
		if d < time.Second {
			return foundationerrors.ValidationError("watch.full_rebuild_interval must be at least 1s").
				WithContext("value", c.Watch.FullRebuildInterval).
				Build()
		}
	}
	if c.Isolation.MaxConcurrent < 0 {
		return foundationerrors.ValidationError("isolation.max_concurrent cannot be negative").
			WithContext("value", c.Isolation.MaxConcurrent).
			Build()
	}
	return nil
}
