package config

import (
	"fmt"
	"os"
)

// StorageConfig selects the document and status store.
type StorageConfig struct {
	Backend  string `yaml:"backend"` // mongo or memory
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`

	StatusCollection      string `yaml:"status_collection"`
	IndexPrefix           string `yaml:"index_prefix"`
	AliasCollection       string `yaml:"alias_collection"`
	DifferencesCollection string `yaml:"differences_collection"`
}

func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:               "mongo",
		URI:                   "mongodb://localhost:27017",
		Database:              "prisoner-search",
		StatusCollection:      "index-status",
		IndexPrefix:           "prisoner-search",
		AliasCollection:       "index-alias",
		DifferencesCollection: "prisoner-differences",
	}
}

func (c *StorageConfig) ApplyDefaults() {
	d := DefaultStorageConfig()
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.URI == "" {
		c.URI = d.URI
	}
	if c.Database == "" {
		c.Database = d.Database
	}
	if c.StatusCollection == "" {
		c.StatusCollection = d.StatusCollection
	}
	if c.IndexPrefix == "" {
		c.IndexPrefix = d.IndexPrefix
	}
	if c.AliasCollection == "" {
		c.AliasCollection = d.AliasCollection
	}
	if c.DifferencesCollection == "" {
		c.DifferencesCollection = d.DifferencesCollection
	}
}

func (c *StorageConfig) ApplyEnvOverrides() {
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.URI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		c.Database = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		c.Backend = v
	}
}

func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case "mongo":
		if c.URI == "" {
			return fmt.Errorf("storage.uri is required for the mongo backend")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid storage backend: %s (must be mongo or memory)", c.Backend)
	}
	if c.Database == "" {
		return fmt.Errorf("storage.database cannot be empty")
	}
	return nil
}
