package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ripwatch/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantTemp := filepath.Join(tempHome, ".local", "share", "ripwatch", "staging")
	if cfg.Paths.Temp != wantTemp {
		t.Fatalf("unexpected temp dir: got %q want %q", cfg.Paths.Temp, wantTemp)
	}
	if cfg.Paths.Base != filepath.Join(tempHome, "library") {
		t.Fatalf("unexpected base dir: %q", cfg.Paths.Base)
	}
	if cfg.MoviesPath() != filepath.Join(tempHome, "library", "movies") {
		t.Fatalf("unexpected movies path: %q", cfg.MoviesPath())
	}
	if cfg.Devices.Primary != "/dev/sr0" {
		t.Fatalf("unexpected primary device: %q", cfg.Devices.Primary)
	}
	if cfg.Detection.MinEpisodeDuration != 1080 || cfg.Detection.MaxEpisodeDuration != 4200 || cfg.Detection.MinMovieDuration != 4500 {
		t.Fatalf("unexpected detection thresholds: %+v", cfg.Detection)
	}
	if !cfg.Detection.AutoEject {
		t.Fatal("expected auto_eject enabled by default")
	}
	if cfg.Detection.OverwriteExisting {
		t.Fatal("expected overwrite_existing disabled by default")
	}
	if cfg.Detection.AmbiguousPolicy != "movie" {
		t.Fatalf("unexpected ambiguous policy: %q", cfg.Detection.AmbiguousPolicy)
	}
	if cfg.Service.CheckInterval != 5 || cfg.Service.RetryCount != 3 || cfg.Service.RetryDelay != 10 {
		t.Fatalf("unexpected service settings: %+v", cfg.Service)
	}
	if cfg.Service.HistoryRetentionDays != 30 {
		t.Fatalf("unexpected history retention: %d", cfg.Service.HistoryRetentionDays)
	}
	if cfg.Ripping.MakemkvBinary != "makemkvcon" {
		t.Fatalf("unexpected makemkv binary: %q", cfg.Ripping.MakemkvBinary)
	}
	if cfg.API.Bind != "127.0.0.1:7487" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.Logging.RetentionDays != 30 {
		t.Fatalf("unexpected retention: %d", cfg.Logging.RetentionDays)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.Temp, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
base = "~/media"
temp = "~/staging"

[devices]
primary = " /dev/sr1 "
additional = ["/dev/sr2", "/dev/sr2", " "]

[detection]
ambiguous_policy = "TV"

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected config file to resolve, exists=%v resolved=%q", exists, resolved)
	}
	if cfg.Paths.Base != filepath.Join(tempHome, "media") {
		t.Fatalf("expected tilde expansion, got %q", cfg.Paths.Base)
	}
	if cfg.Devices.Primary != "/dev/sr1" {
		t.Fatalf("expected trimmed primary device, got %q", cfg.Devices.Primary)
	}
	if len(cfg.Devices.Additional) != 1 || cfg.Devices.Additional[0] != "/dev/sr2" {
		t.Fatalf("expected deduped additional devices, got %v", cfg.Devices.Additional)
	}
	if cfg.Detection.AmbiguousPolicy != "tv" {
		t.Fatalf("expected lowercased policy, got %q", cfg.Detection.AmbiguousPolicy)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lowercased format, got %q", cfg.Logging.Format)
	}
	if got := cfg.DevicePaths(); len(got) != 2 || got[0] != "/dev/sr1" || got[1] != "/dev/sr2" {
		t.Fatalf("unexpected device paths: %v", got)
	}
}

func TestLoadRejectsInvalidThresholds(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "config.toml")
	content := `
[detection]
min_episode_duration = 1200
max_episode_duration = 900
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "max_episode_duration") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "config.toml")
	content := `
[detection]
ambiguous_policy = "guess"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for unknown ambiguous_policy")
	}
}

func TestLoadRejectsPatternWithoutTitle(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "config.toml")
	content := `
[output]
naming_pattern = "disc"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for naming_pattern without {title}")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, ".config", "ripwatch", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	defaults := config.Default()
	if cfg.Detection.MinEpisodeDuration != defaults.Detection.MinEpisodeDuration {
		t.Fatalf("sample drifted from defaults: %+v", cfg.Detection)
	}
	if cfg.Output.NamingPattern != defaults.Output.NamingPattern {
		t.Fatalf("sample drifted from defaults: %q", cfg.Output.NamingPattern)
	}
}
