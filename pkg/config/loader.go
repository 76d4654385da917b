package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/routebind/routebind/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, ROUTEBIND_CONFIG env, ./config.yaml, /etc/routebind/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "config file loaded", "path", filePath)
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. ROUTEBIND_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/routebind/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check ROUTEBIND_CONFIG env var.
	if envPath := os.Getenv("ROUTEBIND_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/routebind/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROUTEBIND_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ROUTEBIND_RECORDS"); v != "" {
		cfg.Records.Type = v
	}
	if v := os.Getenv("ROUTEBIND_RECORDS_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Records.MaxSize = size
		}
	}
	if v := os.Getenv("ROUTEBIND_POSTGRES_DSN"); v != "" {
		cfg.Records.Postgres.DSN = v
	}
	if v := os.Getenv("ROUTEBIND_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("ROUTEBIND_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("ROUTEBIND_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// records.postgres.dsn_file -> records.postgres.dsn
	if cfg.Records.Postgres.DSNFile != "" && cfg.Records.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Records.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("records.postgres.dsn_file: %w", err)
		}
		cfg.Records.Postgres.DSN = val
	}

	// auth.secret_file -> auth.secret
	if cfg.Auth.SecretFile != "" && cfg.Auth.Secret == "" {
		val, err := readSecretFile(cfg.Auth.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.secret_file: %w", err)
		}
		cfg.Auth.Secret = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
