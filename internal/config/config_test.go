package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `REVIEWBOARD_URL = "https://reviews.example.org"
TRACKING_BRANCH = "origin/main"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReviewBoardURL != "https://reviews.example.org" {
		t.Errorf("ReviewBoardURL = %q", cfg.ReviewBoardURL)
	}
	if cfg.TrackingBranch != "origin/main" {
		t.Errorf("TrackingBranch = %q", cfg.TrackingBranch)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReviewBoardURL != DefaultServerURL {
		t.Errorf("ReviewBoardURL = %q, want default %q", cfg.ReviewBoardURL, DefaultServerURL)
	}
	if cfg.TrackingBranch != DefaultTrackingBranch {
		t.Errorf("TrackingBranch = %q, want default %q", cfg.TrackingBranch, DefaultTrackingBranch)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `TRACKING_BRANCH = "origin/main"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReviewBoardURL != DefaultServerURL {
		t.Errorf("ReviewBoardURL = %q, want default", cfg.ReviewBoardURL)
	}
	if cfg.TrackingBranch != "origin/main" {
		t.Errorf("TrackingBranch = %q", cfg.TrackingBranch)
	}
}

func TestLoad_UnrecognizedKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `REVIEWBOARD_URL = "https://reviews.example.org"
TARGET_GROUPS = "mesos"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReviewBoardURL != "https://reviews.example.org" {
		t.Errorf("ReviewBoardURL = %q", cfg.ReviewBoardURL)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		flagValue string
		fileValue string
		want      string
	}{
		{
			name:      "flag overrides file",
			flagValue: "https://reviews.example.org",
			fileValue: "https://reviews.apache.org",
			want:      "https://reviews.example.org",
		},
		{
			name:      "file used when flag unset",
			flagValue: "",
			fileValue: "origin/main",
			want:      "origin/main",
		},
		{
			name:      "default survives when both empty paths collapse",
			flagValue: "",
			fileValue: DefaultTrackingBranch,
			want:      DefaultTrackingBranch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.flagValue, tt.fileValue); got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.flagValue, tt.fileValue, got, tt.want)
			}
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "REVIEWBOARD_URL = [unterminated\n")

	if _, err := Load(dir); err == nil {
		t.Error("Load() expected error for malformed file")
	}
}
