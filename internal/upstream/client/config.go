package client

import (
	"fmt"
	"os"
	"time"
)

// Config holds the upstream API endpoints and credentials.
type Config struct {
	PrisonAPIURL             string        `yaml:"prison_api_url"`
	IncentivesAPIURL         string        `yaml:"incentives_api_url"`
	RestrictedPatientsAPIURL string        `yaml:"restricted_patients_api_url"`
	AuthURL                  string        `yaml:"auth_url"`
	ClientID                 string        `yaml:"client_id"`
	ClientSecret             string        `yaml:"client_secret"`
	Timeout                  time.Duration `yaml:"timeout"`
	RetryCount               int           `yaml:"retry_count"`
}

// DefaultConfig returns local development defaults.
func DefaultConfig() Config {
	return Config{
		PrisonAPIURL:             "http://localhost:8093",
		IncentivesAPIURL:         "http://localhost:8096",
		RestrictedPatientsAPIURL: "http://localhost:8095",
		Timeout:                  30 * time.Second,
		RetryCount:               2,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.PrisonAPIURL == "" {
		c.PrisonAPIURL = d.PrisonAPIURL
	}
	if c.IncentivesAPIURL == "" {
		c.IncentivesAPIURL = d.IncentivesAPIURL
	}
	if c.RestrictedPatientsAPIURL == "" {
		c.RestrictedPatientsAPIURL = d.RestrictedPatientsAPIURL
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.RetryCount < 0 {
		c.RetryCount = 0
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PRISON_API_URL"); v != "" {
		c.PrisonAPIURL = v
	}
	if v := os.Getenv("INCENTIVES_API_URL"); v != "" {
		c.IncentivesAPIURL = v
	}
	if v := os.Getenv("RESTRICTED_PATIENTS_API_URL"); v != "" {
		c.RestrictedPatientsAPIURL = v
	}
	if v := os.Getenv("HMPPS_AUTH_URL"); v != "" {
		c.AuthURL = v
	}
	if v := os.Getenv("CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("CLIENT_SECRET"); v != "" {
		c.ClientSecret = v
	}
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.ClientID != "" && c.AuthURL == "" {
		return fmt.Errorf("upstream.auth_url is required when client_id is set")
	}
	return nil
}

func (c *Config) tokenURL() string {
	return c.AuthURL + "/auth/oauth/token"
}
