package config

import (
	"log/slog"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFiles applies .env and .env.local from home. Variables already present
// in the process environment are never overwritten, so child builds inherit the
// same view.
func loadEnvFiles(home string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(home, name)
		if err := godotenv.Load(path); err == nil {
			slog.Debug("Loaded environment file", slog.String("path", path))
		}
	}
}
