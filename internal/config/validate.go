package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDevices(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateService(); err != nil {
		return err
	}
	if err := c.validateRipping(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.Base) == "" {
		return errors.New("paths.base must be set")
	}
	if strings.TrimSpace(c.Paths.Temp) == "" {
		return errors.New("paths.temp must be set")
	}
	if c.Paths.Temp == c.Paths.Base {
		return errors.New("paths.temp must differ from paths.base")
	}
	return nil
}

func (c *Config) validateDevices() error {
	if strings.TrimSpace(c.Devices.Primary) == "" {
		return errors.New("devices.primary must be set")
	}
	return nil
}

func (c *Config) validateDetection() error {
	if err := ensurePositiveMap(map[string]int{
		"detection.min_episode_duration": c.Detection.MinEpisodeDuration,
		"detection.max_episode_duration": c.Detection.MaxEpisodeDuration,
		"detection.min_movie_duration":   c.Detection.MinMovieDuration,
	}); err != nil {
		return err
	}
	if c.Detection.MaxEpisodeDuration <= c.Detection.MinEpisodeDuration {
		return errors.New("detection.max_episode_duration must be greater than detection.min_episode_duration")
	}
	if c.Detection.MinMovieDuration <= c.Detection.MaxEpisodeDuration {
		return errors.New("detection.min_movie_duration must be greater than detection.max_episode_duration")
	}
	switch c.Detection.AmbiguousPolicy {
	case "movie", "tv", "abort":
	default:
		return fmt.Errorf("detection.ambiguous_policy must be one of %s", strings.Join(AmbiguousPolicies, ", "))
	}
	return nil
}

func (c *Config) validateOutput() error {
	if !strings.Contains(c.Output.NamingPattern, "{title}") {
		return errors.New("output.naming_pattern must contain {title}")
	}
	if c.Output.MinLength <= 0 {
		return errors.New("output.min_length must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateService() error {
	if c.Service.CheckInterval <= 0 {
		return errors.New("service.check_interval must be positive (seconds)")
	}
	if c.Service.RetryCount < 1 {
		return errors.New("service.retry_count must be at least 1")
	}
	if c.Service.RetryDelay < 0 {
		return errors.New("service.retry_delay must be >= 0 (seconds)")
	}
	if c.Service.HistoryRetentionDays < 0 {
		return errors.New("service.history_retention_days must be >= 0 (days, 0 keeps everything)")
	}
	return nil
}

func (c *Config) validateRipping() error {
	if strings.TrimSpace(c.Ripping.MakemkvBinary) == "" {
		return errors.New("ripping.makemkv_binary must be set")
	}
	return ensurePositiveMap(map[string]int{
		"ripping.rip_timeout":           c.Ripping.RipTimeout,
		"ripping.scan_timeout":          c.Ripping.ScanTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateAPI() error {
	if c.API.Enabled && strings.TrimSpace(c.API.Bind) == "" {
		return errors.New("api.bind must be set when api.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
