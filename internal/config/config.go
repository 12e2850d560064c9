// Package config reads the repository's .reviewboardrc file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the per-repository configuration file, read from the top-level
// directory. Only simple KEY = "value" assignments are recognized.
const FileName = ".reviewboardrc"

// Defaults applied when neither a flag nor the config file provides a value.
const (
	DefaultServerURL      = "https://reviews.apache.org"
	DefaultTrackingBranch = "master"
)

// Resolve picks between a command-line value and the config file value for
// the same option. An explicit flag always wins; Load has already applied
// the defaults to fileValue, so the result is never empty.
func Resolve(flagValue, fileValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return fileValue
}

// Config holds the recognized .reviewboardrc options.
type Config struct {
	ReviewBoardURL string `toml:"REVIEWBOARD_URL"`
	TrackingBranch string `toml:"TRACKING_BRANCH"`
}

// Load reads the config file from dir. A missing file yields the defaults.
func Load(dir string) (Config, error) {
	cfg := Config{}
	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	if err == nil {
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", FileName, err)
		}
	}
	if cfg.ReviewBoardURL == "" {
		cfg.ReviewBoardURL = DefaultServerURL
	}
	if cfg.TrackingBranch == "" {
		cfg.TrackingBranch = DefaultTrackingBranch
	}
	return cfg, nil
}
