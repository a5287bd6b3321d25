// config.go - Configuration management for the pool daemon.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the daemon configuration.
type Config struct {
	// Pool settings
	TreeDepth int `json:"tree_depth"`

	// Network
	ListenAddress string `json:"listen_address"`

	// File paths
	LedgerPath string `json:"ledger_path"`
	KeyDir     string `json:"key_dir"`

	// Rate limiting of submission endpoints, per client address
	RateLimitBurst     int `json:"rate_limit_burst"`
	RateLimitPerSecond int `json:"rate_limit_per_second"`

	// Logging
	JSONLogging bool `json:"json_logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TreeDepth:     16,
		ListenAddress: "localhost:3030",
		LedgerPath:    "ledger.json",
		KeyDir:        "keys",

		RateLimitBurst:     20,
		RateLimitPerSecond: 5,
	}
}

// LoadConfig loads configuration from file, creating the default file if
// none exists.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		return &config, nil
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to file.
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.TreeDepth <= 0 || c.TreeDepth > 32 {
		return fmt.Errorf("tree_depth must be in 1..32")
	}
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address must be set")
	}
	if c.LedgerPath == "" {
		return fmt.Errorf("ledger_path must be set")
	}
	if c.KeyDir == "" {
		return fmt.Errorf("key_dir must be set")
	}
	if c.RateLimitBurst <= 0 || c.RateLimitPerSecond <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	return nil
}

// depositKeyPaths returns the proving/verifying key file paths for the
// deposit statement at the configured depth.
func (c *Config) depositKeyPaths() (string, string) {
	return filepath.Join(c.KeyDir, fmt.Sprintf("deposit_d%d_pk.bin", c.TreeDepth)),
		filepath.Join(c.KeyDir, fmt.Sprintf("deposit_d%d_vk.bin", c.TreeDepth))
}

// withdrawKeyPaths returns the proving/verifying key file paths for the
// withdraw statement at the configured depth.
func (c *Config) withdrawKeyPaths() (string, string) {
	return filepath.Join(c.KeyDir, fmt.Sprintf("withdraw_d%d_pk.bin", c.TreeDepth)),
		filepath.Join(c.KeyDir, fmt.Sprintf("withdraw_d%d_vk.bin", c.TreeDepth))
}
