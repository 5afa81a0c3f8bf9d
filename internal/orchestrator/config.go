package orchestrator

import (
	"fmt"
	"os"
	"strconv"
)

// Config controls index rebuilds.
type Config struct {
	// CompletionThreshold is the minimum document count in the building
	// slot before it may be marked complete without an override.
	CompletionThreshold int64 `yaml:"completion_threshold"`
	// PageSize is the number of prisoners per populate-page message.
	PageSize int `yaml:"page_size"`
	// PopulateRate limits populate messages sent per second; zero disables
	// the limit.
	PopulateRate  float64 `yaml:"populate_rate"`
	PopulateBurst int     `yaml:"populate_burst"`
}

func DefaultConfig() Config {
	return Config{
		CompletionThreshold: 0,
		PageSize:            1000,
		PopulateRate:        0,
		PopulateBurst:       100,
	}
}

func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.PageSize == 0 {
		c.PageSize = d.PageSize
	}
	if c.PopulateBurst == 0 {
		c.PopulateBurst = d.PopulateBurst
	}
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("INDEX_COMPLETE_THRESHOLD"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.CompletionThreshold = n
		}
	}
	if v := os.Getenv("INDEX_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PageSize = n
		}
	}
}

func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("index.page_size must be positive")
	}
	if c.CompletionThreshold < 0 {
		return fmt.Errorf("index.completion_threshold must not be negative")
	}
	if c.PopulateRate < 0 {
		return fmt.Errorf("index.populate_rate must not be negative")
	}
	return nil
}
