package config

import (
	"path/filepath"
	"time"

	"github.com/AlignTrue/aligntrue-sync-sub003/pkg/editsource"
)

// Config is the resolved configuration.
type Config struct {
	Exporters       []string                     `koanf:"exporters"`
	EditSource      editsource.Spec              `koanf:"edit_source"`
	ExporterOptions map[string]map[string]string `koanf:"exporter_options"`
	Sync            SyncConfig                   `koanf:"sync"`
	Merge           MergeConfig                  `koanf:"merge"`
	Watch           WatchConfig                  `koanf:"watch"`
	Paths           PathsConfig                  `koanf:"paths"`

	// Source is the project config file that was loaded, if any.
	Source string `koanf:"-"`
}

type SyncConfig struct {
	Interactive bool `koanf:"interactive"`
	// Atomic rolls back every file of a sync when any file fails.
	Atomic      bool   `koanf:"atomic"`
	Concurrency int    `koanf:"concurrency"`
	TempDir     string `koanf:"temp_dir"`
}

type MergeConfig struct {
	Strategy string `koanf:"strategy"`
}

type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

type PathsConfig struct {
	IR      string `koanf:"ir"`
	Backups string `koanf:"backups"`
}

// IRPath returns the rules document location under root.
func (c *Config) IRPath(root string) string {
	return resolve(root, c.Paths.IR)
}

// BackupsPath returns the overwritten-rules archive directory under root.
func (c *Config) BackupsPath(root string) string {
	return resolve(root, c.Paths.Backups)
}

// TempPath returns the staging directory for writes, resolved against
// root. Empty means the system temp dir.
func (c *Config) TempPath(root string) string {
	if c.Sync.TempDir == "" {
		return ""
	}
	return resolve(root, c.Sync.TempDir)
}

// OptionsFor returns the settings for one exporter.
func (c *Config) OptionsFor(exporter string) map[string]string {
	return c.ExporterOptions[exporter]
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}
