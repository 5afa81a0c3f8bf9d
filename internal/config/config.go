package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/listener"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/orchestrator"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/server"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream/client"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/worker"
)

// Config holds the application configuration
type Config struct {
	Server  server.Config `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`

	// Components
	Storage  StorageConfig       `yaml:"storage"`
	Queue    QueueConfig         `yaml:"queue"`
	Events   EventsConfig        `yaml:"events"`
	Listener listener.Config     `yaml:"listener"`
	Upstream client.Config       `yaml:"upstream"`
	Index    orchestrator.Config `yaml:"index"`
	Worker   worker.Config       `yaml:"worker"`
}

// Default returns the configuration before any file or environment is read.
func Default() *Config {
	return &Config{
		Server:   server.DefaultConfig(),
		Logging:  DefaultLoggingConfig(),
		Storage:  DefaultStorageConfig(),
		Queue:    DefaultQueueConfig(),
		Events:   DefaultEventsConfig(),
		Listener: listener.DefaultConfig(),
		Upstream: client.DefaultConfig(),
		Index:    orchestrator.DefaultConfig(),
		Worker:   worker.DefaultConfig(),
	}
}

// LoadConfig loads configuration from files and environment variables
// Order: defaults -> config.yml -> config.local.yml -> ApplyDefaults -> ApplyEnvOverrides -> Validate
func LoadConfig(configDir string) (*Config, error) {
	// Defaults first so YAML can override them, including bool fields.
	cfg := Default()

	loadFile(filepath.Join(configDir, "config.yml"), cfg)
	loadFile(filepath.Join(configDir, "config.local.yml"), cfg)

	cfg.Logging.ResolvePaths(configDir)
	if err := ApplyServiceConfigs(
		&cfg.Server,
		&cfg.Logging,
		&cfg.Storage,
		&cfg.Queue,
		&cfg.Events,
		&cfg.Listener,
		&cfg.Upstream,
		&cfg.Index,
		&cfg.Worker,
	); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return // File doesn't exist, skip
		}
		log.Printf("Warning: Error reading %s: %v", filename, err)
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("Warning: Error parsing %s: %v", filename, err)
	}
}
