package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/akini/internal/logfields"
)

// StagingDirName is the hidden directory below build/ that holds workspaces.
const StagingDirName = ".staging"

// Manager handles one staging workspace. Files are written into the workspace
// and then published into their destination by rename, so readers of the
// destination only ever see complete files.
type Manager struct {
	baseDir string
	tempDir string
}

// NewManager creates a workspace manager staging below baseDir.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// ForBuild returns a manager staging in the hidden directory of buildDir.
// Staging and destination share a filesystem, which keeps Publish atomic per file.
func ForBuild(buildDir string) *Manager {
	return NewManager(filepath.Join(buildDir, StagingDirName))
}

// Create creates a uniquely named, timestamped workspace directory. Concurrent
// builds each get their own.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	pattern := fmt.Sprintf("akini-%s-*", time.Now().Format("20060102-150405"))
	tempDir, err := os.MkdirTemp(m.baseDir, pattern)
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.tempDir = tempDir
	slog.Debug("Created workspace", logfields.Path(tempDir))
	return nil
}

// GetPath returns the path to the workspace directory.
func (m *Manager) GetPath() string {
	return m.tempDir
}

// WriteFile stages one file in the workspace.
func (m *Manager) WriteFile(name string, data []byte) error {
	if m.tempDir == "" {
		return fmt.Errorf("workspace not created")
	}
	if err := os.WriteFile(filepath.Join(m.tempDir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to stage %s: %w", name, err)
	}
	return nil
}

// Publish moves every staged file into destDir, creating it when needed, and
// returns the published names in order.
func (m *Manager) Publish(destDir string) ([]string, error) {
	if m.tempDir == "" {
		return nil, fmt.Errorf("workspace not created")
	}
	entries, err := os.ReadDir(m.tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace: %w", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Rename(filepath.Join(m.tempDir, e.Name()), filepath.Join(destDir, e.Name())); err != nil {
			return names, fmt.Errorf("failed to publish %s: %w", e.Name(), err)
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	slog.Debug("Published workspace", logfields.Path(destDir), slog.Int("files", len(names)))
	return names, nil
}

// Cleanup removes the workspace directory and anything left in it.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}
	if err := os.RemoveAll(m.tempDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}
