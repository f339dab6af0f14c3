package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if c.Live.DebounceMillis < 0 {
		return errors.New("live.debounce_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateAlignment() error {
	if c.Alignment.BestEffortRatio <= 0 || c.Alignment.BestEffortRatio > 1 {
		return errors.New("alignment.best_effort_ratio must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	if c.Captions.MaxCueSeconds <= 0 {
		return errors.New("captions.max_cue_seconds must be positive")
	}
	if c.Captions.MinCueSeconds < 0 || c.Captions.MinCueSeconds > c.Captions.MaxCueSeconds {
		return errors.New("captions.min_cue_seconds must be between 0 and max_cue_seconds")
	}
	if c.Captions.MaxCharsPerLine < 10 {
		return errors.New("captions.max_chars_per_line must be at least 10")
	}
	if c.Captions.MaxLines < 1 || c.Captions.MaxLines > 3 {
		return errors.New("captions.max_lines must be between 1 and 3")
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.FontSize < 6 || c.Export.FontSize > 72 {
		return errors.New("export.font_size must be between 6 and 72")
	}
	return nil
}
