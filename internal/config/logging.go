package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// LoggingConfig controls the console stream and the rotating files under
// Dir. Console and File inherit Level and Format unless they set their own.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
	// ErrorLevel is the threshold for the separate errors file.
	ErrorLevel string         `yaml:"error_level"`
	Rotation   RotationConfig `yaml:"rotation"`
	Console    OutputConfig   `yaml:"console"`
	File       OutputConfig   `yaml:"file"`
}

// RotationConfig is passed to lumberjack for every log file.
type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"` // MB
	MaxBackups int  `yaml:"max_backups"`
	MaxAge     int  `yaml:"max_age"` // days
	Compress   bool `yaml:"compress"`
}

type OutputConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// inherit fills o from the top-level settings. An output with no settings
// at all is enabled.
func (o *OutputConfig) inherit(level, format string) {
	if *o == (OutputConfig{}) {
		o.Enabled = true
	}
	if o.Level == "" {
		o.Level = level
	}
	if o.Format == "" {
		o.Format = format
	}
}

func (o OutputConfig) validate(name string) error {
	if !o.Enabled {
		return nil
	}
	if o.Level != "" && !slices.Contains(logLevels, o.Level) {
		return fmt.Errorf("logging.%s.level: unknown level %q", name, o.Level)
	}
	if o.Format != "" && !slices.Contains(logFormats, o.Format) {
		return fmt.Errorf("logging.%s.format: unknown format %q", name, o.Format)
	}
	return nil
}

func DefaultLoggingConfig() LoggingConfig {
	c := LoggingConfig{Rotation: RotationConfig{Compress: true}}
	c.ApplyDefaults()
	return c
}

func (c *LoggingConfig) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Dir == "" {
		c.Dir = "logs"
	}
	if c.ErrorLevel == "" {
		c.ErrorLevel = "warn"
	}
	if c.Rotation.MaxSize == 0 {
		c.Rotation.MaxSize = 100
	}
	if c.Rotation.MaxBackups == 0 {
		c.Rotation.MaxBackups = 10
	}
	if c.Rotation.MaxAge == 0 {
		c.Rotation.MaxAge = 30
	}
	c.Console.inherit(c.Level, c.Format)
	c.File.inherit(c.Level, c.Format)
}

// ApplyEnvOverrides lets LOG_LEVEL and LOG_FORMAT override every output,
// and LOG_DIR relocate the files.
func (c *LoggingConfig) ApplyEnvOverrides() {
	if v := strings.ToLower(os.Getenv("LOG_LEVEL")); v != "" {
		c.Level, c.Console.Level, c.File.Level = v, v, v
	}
	if v := strings.ToLower(os.Getenv("LOG_FORMAT")); v != "" {
		c.Format, c.Console.Format, c.File.Format = v, v, v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.Dir = v
	}
}

// ResolvePaths makes a relative log directory a sibling of configDir.
// Paths starting with ".." are taken relative to configDir itself.
func (c *LoggingConfig) ResolvePaths(configDir string) {
	if c.Dir == "" || filepath.IsAbs(c.Dir) {
		return
	}
	base := filepath.Dir(configDir)
	if strings.HasPrefix(c.Dir, "..") {
		base = configDir
	}
	c.Dir = filepath.Clean(filepath.Join(base, c.Dir))
}

func (c *LoggingConfig) Validate() error {
	if !slices.Contains(logLevels, c.Level) {
		return fmt.Errorf("logging.level: unknown level %q (want one of %s)", c.Level, strings.Join(logLevels, ", "))
	}
	if !slices.Contains(logFormats, c.Format) {
		return fmt.Errorf("logging.format: unknown format %q (want one of %s)", c.Format, strings.Join(logFormats, ", "))
	}
	if c.ErrorLevel != "" && !slices.Contains(logLevels, c.ErrorLevel) {
		return fmt.Errorf("logging.error_level: unknown level %q", c.ErrorLevel)
	}
	if c.File.Enabled && c.Dir == "" {
		return fmt.Errorf("logging.dir: required when file logging is enabled")
	}
	if err := c.Console.validate("console"); err != nil {
		return err
	}
	return c.File.validate("file")
}
