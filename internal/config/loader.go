package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config captures environment driven configuration values for the roster
// service.
type Config struct {
	HTTPPort int
	// SQLiteDSN selects the storage backend. An empty value runs the
	// service on the in-memory store.
	SQLiteDSN string
	// CommandNetName labels the root node of auto-generated communication
	// trees.
	CommandNetName string
	// BaseFrequency seeds the sequential frequencies of auto-generated
	// trees.
	BaseFrequency int
}

// Load parses configuration values from the current process environment.
// Optional fields fall back to defaults; invalid values are accumulated and
// reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		CommandNetName: "COMANDO CENTRAL",
		BaseFrequency:  41,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("ROSTER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ROSTER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	cfg.SQLiteDSN = strings.TrimSpace(os.Getenv("ROSTER_SQLITE_DSN"))

	if name := strings.TrimSpace(os.Getenv("ROSTER_COMMAND_NET_NAME")); name != "" {
		cfg.CommandNetName = name
	}

	if freqValue := strings.TrimSpace(os.Getenv("ROSTER_BASE_FREQUENCY")); freqValue != "" {
		freq, err := strconv.Atoi(freqValue)
		if err != nil || freq <= 0 {
			invalid = append(invalid, "ROSTER_BASE_FREQUENCY")
		} else {
			cfg.BaseFrequency = freq
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
