package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Init writes a manifest with example settings into dir.
func Init(dir string, force bool) error {
	path := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("manifest already exists: %s (use --force to overwrite)", path)
	}

	example := Config{
		Name:    filepath.Base(dir),
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Watch: WatchConfig{
			SearchDepth: DefaultSearchDepth,
			ServerDir:   DefaultServerDir,
		},
	}
	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultManifestHeader), data...), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
