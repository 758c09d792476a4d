package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the workforce
// tracker service.
type Config struct {
	HTTPPort   int
	SQLiteDSN  string
	SessionTTL time.Duration
	// AdminEmail and AdminPassword, when both set, seed a bootstrap
	// administrator account on startup.
	AdminEmail    string
	AdminPassword string
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// the values that are set.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:workforce.db?_foreign_keys=on",
		SessionTTL: 24 * time.Hour,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("WORKFORCE_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "WORKFORCE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("WORKFORCE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("WORKFORCE_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "WORKFORCE_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	cfg.AdminEmail = strings.TrimSpace(os.Getenv("WORKFORCE_ADMIN_EMAIL"))
	cfg.AdminPassword = os.Getenv("WORKFORCE_ADMIN_PASSWORD")
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		invalid = append(invalid, "WORKFORCE_ADMIN_EMAIL")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
