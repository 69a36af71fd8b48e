package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDevices()
	c.normalizeDetection()
	c.normalizeOutput()
	c.normalizeRipping()
	c.normalizeNotifications()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.Base, err = expandPath(c.Paths.Base); err != nil {
		return fmt.Errorf("paths.base: %w", err)
	}
	if c.Paths.Temp, err = expandPath(c.Paths.Temp); err != nil {
		return fmt.Errorf("paths.temp: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.MoviesDir = strings.TrimSpace(c.Paths.MoviesDir)
	if c.Paths.MoviesDir == "" {
		c.Paths.MoviesDir = defaultMoviesDir
	}
	c.Paths.TVDir = strings.TrimSpace(c.Paths.TVDir)
	if c.Paths.TVDir == "" {
		c.Paths.TVDir = defaultTVDir
	}
	return nil
}

func (c *Config) normalizeDevices() {
	c.Devices.Primary = strings.TrimSpace(c.Devices.Primary)
	if c.Devices.Primary == "" {
		if value, ok := os.LookupEnv("RIPWATCH_DEVICE"); ok && strings.TrimSpace(value) != "" {
			c.Devices.Primary = strings.TrimSpace(value)
		} else {
			c.Devices.Primary = defaultDevice
		}
	}
	cleaned := make([]string, 0, len(c.Devices.Additional))
	seen := map[string]struct{}{c.Devices.Primary: {}}
	for _, dev := range c.Devices.Additional {
		trimmed := strings.TrimSpace(dev)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}
	c.Devices.Additional = cleaned
}

func (c *Config) normalizeDetection() {
	c.Detection.AmbiguousPolicy = strings.ToLower(strings.TrimSpace(c.Detection.AmbiguousPolicy))
	if c.Detection.AmbiguousPolicy == "" {
		c.Detection.AmbiguousPolicy = defaultAmbiguousPolicy
	}
}

func (c *Config) normalizeOutput() {
	c.Output.NamingPattern = strings.TrimSpace(c.Output.NamingPattern)
	if c.Output.NamingPattern == "" {
		c.Output.NamingPattern = defaultNamingPattern
	}
	if c.Output.MinLength <= 0 {
		c.Output.MinLength = defaultMinLength
	}
}

func (c *Config) normalizeRipping() {
	c.Ripping.MakemkvBinary = strings.TrimSpace(c.Ripping.MakemkvBinary)
	if c.Ripping.MakemkvBinary == "" {
		c.Ripping.MakemkvBinary = defaultMakemkvBinary
	}
	if c.Ripping.RipTimeout <= 0 {
		c.Ripping.RipTimeout = defaultRipTimeout
	}
	if c.Ripping.ScanTimeout <= 0 {
		c.Ripping.ScanTimeout = defaultScanTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("RIPWATCH_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	c.Notifications.NtfyServer = strings.TrimSpace(c.Notifications.NtfyServer)
	if c.Notifications.NtfyServer == "" {
		c.Notifications.NtfyServer = defaultNtfyServer
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
