package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// server.max_body_size must be positive.
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	// records.type must be a known value.
	switch c.Records.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("records.type must be \"memory\" or \"postgres\", got %q", c.Records.Type))
	}

	// If records.type is "postgres", DSN or DSNFile must be set.
	if c.Records.Type == "postgres" {
		if c.Records.Postgres.DSN == "" && c.Records.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("records.postgres.dsn or records.postgres.dsn_file is required when records.type is \"postgres\""))
		}
	}

	// auth.type must be a known value.
	switch c.Auth.Type {
	case "none", "bearer":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\" or \"bearer\", got %q", c.Auth.Type))
	}

	// Bearer auth needs a signing secret.
	if c.Auth.Type == "bearer" {
		if c.Auth.Secret == "" && c.Auth.SecretFile == "" {
			errs = append(errs, fmt.Errorf("auth.secret or auth.secret_file is required when auth.type is \"bearer\""))
		}
	}

	// logging.level must be a known value.
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be \"trace\", \"debug\", \"info\", \"warn\", or \"error\", got %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}
