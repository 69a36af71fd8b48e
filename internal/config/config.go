package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. Base is the library root; movies_dir
// and tv_dir are subdirectory names beneath it. Temp holds in-progress rips,
// StateDir the database, control socket, and lock file.
type Paths struct {
	Base      string `toml:"base"`
	MoviesDir string `toml:"movies_dir"`
	TVDir     string `toml:"tv_dir"`
	Temp      string `toml:"temp"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
}

// Devices lists the optical drives to monitor.
type Devices struct {
	Primary    string   `toml:"primary"`
	Additional []string `toml:"additional"`
}

// Detection contains classification thresholds (seconds) and post-rip
// behaviour toggles.
type Detection struct {
	MinEpisodeDuration int    `toml:"min_episode_duration"`
	MaxEpisodeDuration int    `toml:"max_episode_duration"`
	MinMovieDuration   int    `toml:"min_movie_duration"`
	AutoEject          bool   `toml:"auto_eject"`
	OverwriteExisting  bool   `toml:"overwrite_existing"`
	ReripDuplicates    bool   `toml:"rerip_duplicates"`
	AmbiguousPolicy    string `toml:"ambiguous_policy"`
}

// Output controls naming and track selection for ripped files.
type Output struct {
	NamingPattern string `toml:"naming_pattern"`
	MinLength     int    `toml:"min_length"`
}

// Service contains monitor loop timing, retry, and history retention
// settings.
type Service struct {
	CheckInterval        int `toml:"check_interval"`
	RetryCount           int `toml:"retry_count"`
	RetryDelay           int `toml:"retry_delay"`
	HistoryRetentionDays int `toml:"history_retention_days"`
}

// Ripping contains external ripping tool settings.
type Ripping struct {
	MakemkvBinary string `toml:"makemkv_binary"`
	RipTimeout    int    `toml:"rip_timeout"`
	ScanTimeout   int    `toml:"scan_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	NtfyServer     string `toml:"ntfy_server"`
	RequestTimeout int    `toml:"request_timeout"`
}

// API contains the HTTP status endpoint configuration.
type API struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for ripwatch.
//
// Configuration sections by subsystem:
//   - Paths: library root, staging, logs, and state directories
//   - Devices: optical drives to monitor
//   - Detection: duration thresholds, eject/overwrite/duplicate policy
//   - Output: naming pattern and minimum track length
//   - Service: poll interval and retry policy
//   - Ripping: makemkvcon binary and timeouts
//   - Notifications: ntfy push notification settings
//   - API: HTTP status endpoint
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Devices       Devices       `toml:"devices"`
	Detection     Detection     `toml:"detection"`
	Output        Output        `toml:"output"`
	Service       Service       `toml:"service"`
	Ripping       Ripping       `toml:"ripping"`
	Notifications Notifications `toml:"notifications"`
	API           API           `toml:"api"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ripwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/ripwatch/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ripwatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation. The
// library root is created on a best-effort basis so the daemon can start when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.Temp, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.Base) != "" {
		_ = os.MkdirAll(c.MoviesPath(), 0o755)
		_ = os.MkdirAll(c.TVPath(), 0o755)
	}
	return nil
}

// MoviesPath returns the absolute movie library directory.
func (c *Config) MoviesPath() string {
	return filepath.Join(c.Paths.Base, c.Paths.MoviesDir)
}

// TVPath returns the absolute TV library directory.
func (c *Config) TVPath() string {
	return filepath.Join(c.Paths.Base, c.Paths.TVDir)
}

// DatabasePath returns the rip-history SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "ripwatch.db")
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "ripwatchd.sock")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "ripwatchd.lock")
}

// PIDPath returns the daemon pid file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "ripwatchd.pid")
}

// DevicePaths returns the monitored device list with the primary first and
// duplicates removed.
func (c *Config) DevicePaths() []string {
	seen := make(map[string]struct{}, 1+len(c.Devices.Additional))
	devices := make([]string, 0, 1+len(c.Devices.Additional))
	for _, dev := range append([]string{c.Devices.Primary}, c.Devices.Additional...) {
		trimmed := strings.TrimSpace(dev)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		devices = append(devices, trimmed)
	}
	return devices
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
