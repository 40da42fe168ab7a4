package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Player.log location relative to the user's home directory on macOS,
// where the Arena client writes its Unity log.
const playerLogRelative = "Library/Logs/Wizards Of The Coast/MTGA/Unity/Player.log"

// Tracker holds paths and poll intervals for the core pipeline.
type Tracker struct {
	// LogPath is the path of the Arena Player.log to tail.
	// Empty means the default macOS location under the home directory.
	LogPath string `mapstructure:"log_path" default:""`
	// DataDir is the directory holding the state database and metadata cache.
	DataDir string `mapstructure:"data_dir" default:""`
	// ExportDir is the directory the CSV/JSON exports are written to.
	ExportDir string `mapstructure:"export_dir" default:""`
	// ActiveInterval is the poll interval while the log file has content.
	ActiveInterval time.Duration `mapstructure:"active_interval" default:"500ms"`
	// IdleInterval is the poll interval while the log file is absent or empty.
	IdleInterval time.Duration `mapstructure:"idle_interval" default:"5s"`
	// ExportInterval is the cadence of the forced periodic export.
	ExportInterval time.Duration `mapstructure:"export_interval" default:"15m"`
}

// Resolve expands empty and ~-prefixed paths against the user's home
// directory and creates the data and export directories.
func (t *Tracker) Resolve() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	expand := func(p string) string {
		if strings.HasPrefix(p, "~/") {
			return filepath.Join(home, p[2:])
		}
		return os.ExpandEnv(p)
	}

	if t.LogPath == "" {
		t.LogPath = filepath.Join(home, filepath.FromSlash(playerLogRelative))
	} else {
		t.LogPath = expand(t.LogPath)
	}
	if t.DataDir == "" {
		t.DataDir = filepath.Join(home, "Library", "Application Support", "collection-tracker")
	} else {
		t.DataDir = expand(t.DataDir)
	}
	if t.ExportDir == "" {
		t.ExportDir = filepath.Join(home, "Documents", "MTGA")
	} else {
		t.ExportDir = expand(t.ExportDir)
	}

	for _, dir := range []string{t.DataDir, t.ExportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// StatePath returns the location of the SQLite state database.
func (t Tracker) StatePath() string {
	return filepath.Join(t.DataDir, "state.db")
}

// MetadataCachePath returns the on-disk cache of the Scryfall bulk file.
func (t Tracker) MetadataCachePath() string {
	return filepath.Join(t.DataDir, "scryfall_default_cards.json")
}

// CSVPath returns the CSV export target.
func (t Tracker) CSVPath() string {
	return filepath.Join(t.ExportDir, "collection.csv")
}

// JSONPath returns the JSON export target.
func (t Tracker) JSONPath() string {
	return filepath.Join(t.ExportDir, "collection.json")
}
