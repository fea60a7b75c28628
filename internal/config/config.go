// Package config loads process configuration from environment variables.
// Storage, blob, and broadcast drivers read their own variables in their
// packages; this covers the server-level knobs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config captures environment driven configuration for the staffmap server.
type Config struct {
	HTTPPort        int
	OwnerID         string
	ClientStatePath string
	LogLevel        string
	Verbose         bool
}

// Load parses configuration from the current process environment, applying
// defaults for optional values.
//
//	STAFFMAP_HTTP_PORT: listen port (default 8080)
//	STAFFMAP_OWNER_ID: owner identity scoping the session registry (default "local")
//	STAFFMAP_CLIENT_STATE_PATH: active-session state file (default staffmap_client.json)
//	STAFFMAP_LOG_LEVEL: zap level string (default info)
//	STAFFMAP_VERBOSE: true enables debug tracing output
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		OwnerID:         "local",
		ClientStatePath: "staffmap_client.json",
		LogLevel:        "info",
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("STAFFMAP_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "STAFFMAP_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if owner := strings.TrimSpace(os.Getenv("STAFFMAP_OWNER_ID")); owner != "" {
		cfg.OwnerID = owner
	}

	if path := strings.TrimSpace(os.Getenv("STAFFMAP_CLIENT_STATE_PATH")); path != "" {
		cfg.ClientStatePath = path
	}

	if level := strings.TrimSpace(os.Getenv("STAFFMAP_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if verbose := strings.TrimSpace(os.Getenv("STAFFMAP_VERBOSE")); verbose != "" {
		b, err := strconv.ParseBool(verbose)
		if err != nil {
			invalid = append(invalid, "STAFFMAP_VERBOSE")
		} else {
			cfg.Verbose = b
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
