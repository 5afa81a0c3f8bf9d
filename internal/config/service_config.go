package config

// ServiceConfig defines the standard configuration lifecycle methods.
// Each section implements it so LoadConfig can treat them uniformly.
type ServiceConfig interface {
	// ApplyDefaults fills zero values with sensible defaults
	ApplyDefaults()

	// ApplyEnvOverrides applies environment variable overrides
	ApplyEnvOverrides()

	// Validate returns an error if the configuration is invalid.
	Validate() error
}

// ApplyServiceConfigs applies the configuration lifecycle to all service configs.
// It calls ApplyDefaults, ApplyEnvOverrides, and Validate in order.
func ApplyServiceConfigs(configs ...ServiceConfig) error {
	for _, cfg := range configs {
		cfg.ApplyDefaults()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
