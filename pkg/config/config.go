/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config represents the NornDB configuration
type Config struct {
	DataDir  string                 `yaml:"data_dir"`
	Backend  string                 `yaml:"backend"`
	Port     int                    `yaml:"port"`
	Bind     string                 `yaml:"bind"`
	Database Database               `yaml:"database"`
	Tables   map[string]TableConfig `yaml:"tables"`
	Logging  Logging                `yaml:"logging"`
}

// Database contains database-wide settings
type Database struct {
	ID          string `yaml:"id"`
	MasterKey   string `yaml:"master_key"`
	KDF         string `yaml:"kdf"`
	IndexSafety bool   `yaml:"index_safety"`
}

// TableConfig contains the per-table layer defaults. Values written earlier
// under different settings stay readable; these apply to new writes only.
type TableConfig struct {
	Codec        string   `yaml:"codec"`
	Compression  string   `yaml:"compression,omitempty"`
	Dictionary   uint32   `yaml:"dictionary,omitempty"`
	Encryption   string   `yaml:"encryption,omitempty"`
	DataShards   int      `yaml:"data_shards,omitempty"`
	ParityShards int      `yaml:"parity_shards,omitempty"`
	NotPolicy    string   `yaml:"not_policy,omitempty"`
	Indexes      []string `yaml:"indexes,omitempty"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Backend: "badger",
		Port:    8080,
		Bind:    "127.0.0.1",
		Database: Database{
			ID:          "auto",
			MasterKey:   "auto",
			KDF:         "hkdf-sha256",
			IndexSafety: true,
		},
		Tables: map[string]TableConfig{},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Validate checks settings that cannot be caught at unmarshal time
func (c *Config) Validate() error {
	switch c.Backend {
	case "badger", "pebble":
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	for name, table := range c.Tables {
		if table.Codec == "" {
			return fmt.Errorf("table %s: codec is required", name)
		}
		if (table.DataShards > 0) != (table.ParityShards > 0) {
			return fmt.Errorf("table %s: data_shards and parity_shards must be set together", name)
		}
		switch table.NotPolicy {
		case "", "empty", "all", "error":
		default:
			return fmt.Errorf("table %s: unknown not_policy: %s", name, table.NotPolicy)
		}
	}
	return nil
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The master key lives in this file, so keep it 0600
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated database
// identity and master key, then saves it
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	config.Database.ID = uuid.NewString()

	masterKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	config.Database.MasterKey = masterKey

	// Save the configuration
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "norn.yaml"
	}
	return filepath.Join(homeDir, ".norn", "norn.yaml")
}
