// Package config loads and stores clinmatch configuration in the XDG config dir.
// Every value the pipeline needs (database connection parts, remote function
// name and region, dispatch policy) lives here and is passed down explicitly;
// nothing in the pipeline reads package-level state after startup.
//
// Resolution order: defaults, then the JSON config file, then environment
// variables (a .env file is honored when present via godotenv).
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/codex-stevenh/clinmatch-AACT/internal/dsn"
	"github.com/codex-stevenh/clinmatch-AACT/internal/xdg"
)

// Config holds all clinmatch settings.
type Config struct {
	LogLevel string         `json:"log_level"`
	DB       DBConfig       `json:"db"`
	Function FunctionConfig `json:"function"`
	Dispatch DispatchConfig `json:"dispatch"`
}

// DBConfig holds the study-store connection parts. A full DSN (DATABASE_URL
// or CLINMATCH_DSN) overrides the individual parts when set.
type DBConfig struct {
	Name     string `json:"name"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	DSN      string `json:"dsn,omitempty"`
}

// FunctionConfig identifies the remote function that receives the export.
type FunctionConfig struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

// DispatchConfig is the dispatch policy. The defaults (one attempt, no
// backoff, no timeout override) reproduce the reference behavior of relying
// entirely on transport defaults.
type DispatchConfig struct {
	MaxAttempts int `json:"max_attempts"`
	BackoffMS   int `json:"backoff_ms"`
	TimeoutMS   int `json:"timeout_ms"`
}

// ResolveDSN returns the connection string for the configured database:
// the explicit DSN when provided, otherwise one built from the parts.
func (d DBConfig) ResolveDSN() (string, error) {
	if strings.TrimSpace(d.DSN) != "" {
		return dsn.Parse(strings.TrimSpace(d.DSN))
	}
	built := dsn.Build(d.Name, d.User, d.Password, d.Host, d.Port)
	if err := dsn.Validate(built); err != nil {
		return "", err
	}
	return built, nil
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		DB: DBConfig{
			Host: "localhost",
			Port: "5432",
		},
		Dispatch: DispatchConfig{
			MaxAttempts: 1,
		},
	}
}

// Load reads configuration; missing file returns defaults. Environment
// variables override file values either way.
func Load() (Config, error) {
	// .env is optional; ignore a missing file
	_ = godotenv.Load()

	c := Defaults()
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return c, err
		}
	} else if err := json.Unmarshal(data, &c); err != nil {
		return c, err
	}
	applyEnv(&c)
	return c, nil
}

// applyEnv overlays recognized environment variables onto c.
func applyEnv(c *Config) {
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&c.DB.DSN, "CLINMATCH_DSN", "DATABASE_URL")
	setString(&c.DB.Name, "CLINMATCH_DB_NAME")
	setString(&c.DB.User, "CLINMATCH_DB_USER")
	setString(&c.DB.Password, "CLINMATCH_DB_PASSWORD")
	setString(&c.DB.Host, "CLINMATCH_DB_HOST")
	setString(&c.DB.Port, "CLINMATCH_DB_PORT")
	setString(&c.Function.Name, "CLINMATCH_FUNCTION_NAME")
	setString(&c.Function.Region, "CLINMATCH_REGION", "AWS_REGION")
	setString(&c.LogLevel, "CLINMATCH_LOG_LEVEL")

	setInt := func(dst *int, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setInt(&c.Dispatch.MaxAttempts, "CLINMATCH_DISPATCH_MAX_ATTEMPTS")
	setInt(&c.Dispatch.BackoffMS, "CLINMATCH_DISPATCH_BACKOFF_MS")
	setInt(&c.Dispatch.TimeoutMS, "CLINMATCH_DISPATCH_TIMEOUT_MS")
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
