package lib

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the non_chef plugin configuration, as read from a yml
// file and/or flags
type Config struct {
	ChefServerURL     string   `yaml:"chef_server_url"`
	ClientName        string   `yaml:"client_name"`
	ClientKeyFile     string   `yaml:"client_key_file"`
	ExcludedInstances []string `yaml:"excluded_instances"`
	NodeQuery         string   `yaml:"node_query,omitempty"`
	SkipSSL           bool     `yaml:"skip_ssl,omitempty"`

	// ClientKey is the PEM client key material, resolved from the
	// environment or ClientKeyFile
	ClientKey string `yaml:"-"`
}

// LoadConfigFile reads a yml config file. An empty path yields an
// empty config.
func LoadConfigFile(path string) (*Config, error) {
	cfg := &Config{ExcludedInstances: []string{}}
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(b, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveClientKey fills ClientKey from the compressed env vars or
// ClientKeyFile when it is not already set
func (cfg *Config) ResolveClientKey() {
	if cfg.ClientKey != "" {
		return
	}

	cfg.ClientKey = GetChefClientKey(cfg.ClientKeyFile)
}

// Validate performs all validity checks and returns a *MultiError if
// any failed
func (cfg *Config) Validate() error {
	errors := []error{}
	if cfg.ChefServerURL == "" {
		errors = append(errors, ErrMissingServerURL)
	}
	if cfg.ClientName == "" {
		errors = append(errors, ErrMissingClientName)
	}
	if cfg.ClientKey == "" {
		errors = append(errors, ErrMissingClientKey)
	}

	if len(errors) > 0 {
		return &MultiError{Errors: errors}
	}

	return nil
}
