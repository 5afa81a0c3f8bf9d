package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestDefaultLoggingConfig(t *testing.T) {
	cfg := DefaultLoggingConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "logs", cfg.Dir)
	assert.Equal(t, 100, cfg.Rotation.MaxSize)
	assert.True(t, cfg.Rotation.Compress)
	assert.True(t, cfg.Console.Enabled)
	assert.True(t, cfg.File.Enabled)
	assert.Equal(t, "warn", cfg.ErrorLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoggingConfigYAMLParsing(t *testing.T) {
	yamlData := `
level: "debug"
format: "json"
dir: "/var/log/prisoner-search"
rotation:
  max_size: 50
  compress: false
console:
  enabled: false
`
	var cfg LoggingConfig
	assert.NoError(t, yaml.Unmarshal([]byte(yamlData), &cfg))
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "/var/log/prisoner-search", cfg.Dir)
	assert.Equal(t, 50, cfg.Rotation.MaxSize)
	assert.False(t, cfg.Console.Enabled)
}

func TestLoggingConfigApplyDefaultsWithPartialConfig(t *testing.T) {
	cfg := &LoggingConfig{
		Level:  "debug",
		Format: "json",
		Console: OutputConfig{
			Enabled: true,
			Level:   "warn",
		},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "warn", cfg.Console.Level)
	assert.Equal(t, "json", cfg.Console.Format)
	assert.Equal(t, "logs", cfg.Dir)
	assert.True(t, cfg.File.Enabled)
	assert.Equal(t, "debug", cfg.File.Level)
	assert.Equal(t, "json", cfg.File.Format)
	assert.Equal(t, "/var/log/prisoner-search", cfg.Dir)
}

func TestLoggingConfigResolvePaths(t *testing.T) {
	tests := []struct {
		name     string
		dir      string
		expected string
	}{
		{"relative path next to config dir", "logs", filepath.Clean("/app/logs")},
		{"relative with subdirs", "logs/app", filepath.Clean("/app/logs/app")},
		{"parent relative to config dir", "../var/logs", filepath.Clean("/app/var/logs")},
		{"absolute path unchanged", "/var/log/prisoner-search", "/var/log/prisoner-search"},
		{"empty dir unchanged", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &LoggingConfig{Dir: tt.dir}
			cfg.ResolvePaths("/app/config")
			assert.Equal(t, tt.expected, cfg.Dir)
		})
	}
}

func TestLoggingConfigValidation(t *testing.T) {
	base := func() LoggingConfig {
		return LoggingConfig{Level: "info", Format: "text", Dir: "logs"}
	}
	tests := []struct {
		name   string
		modify func(*LoggingConfig)
		ok     bool
	}{
		{"valid", func(*LoggingConfig) {}, true},
		{"invalid level", func(c *LoggingConfig) { c.Level = "verbose" }, false},
		{"invalid format", func(c *LoggingConfig) { c.Format = "xml" }, false},
		{"empty dir with file output", func(c *LoggingConfig) { c.Dir = ""; c.File.Enabled = true }, false},
		{"empty dir console only", func(c *LoggingConfig) { c.Dir = "" }, true},
		{"invalid error level", func(c *LoggingConfig) { c.ErrorLevel = "fatal" }, false},
		{"invalid console level", func(c *LoggingConfig) { c.Console = OutputConfig{Enabled: true, Level: "x"} }, false},
		{"invalid file format", func(c *LoggingConfig) { c.File = OutputConfig{Enabled: true, Format: "xml"} }, false},
		{"disabled file ignores format", func(c *LoggingConfig) { c.File = OutputConfig{Format: "xml"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.modify(&cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestLoggingConfigApplyEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_DIR", "/var/log/prisoner-search")

	cfg := DefaultLoggingConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "debug", cfg.Console.Level)
	assert.Equal(t, "json", cfg.File.Format)
	assert.Equal(t, "/var/log/prisoner-search", cfg.Dir)
}
