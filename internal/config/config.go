// Package config resolves settings for the recordstore command.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults
//  2. the YAML file passed to Load (optional)
//  3. a .env file in the working directory (optional)
//  4. the process environment
//
// The record store itself reads no configuration; the command passes what
// it needs in explicitly.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/roach88/recordstore/internal/store"
)

// Environment variables that override file settings.
const (
	EnvDB         = "RECORDSTORE_DB"
	EnvLogLevel   = "RECORDSTORE_LOG_LEVEL"
	EnvLogFormat  = "RECORDSTORE_LOG_FORMAT"
	EnvBcryptCost = "RECORDSTORE_BCRYPT_COST"
)

// Config is the resolved configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

type DatabaseConfig struct {
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

type SecurityConfig struct {
	// BcryptCost 0 means bcrypt.DefaultCost.
	BcryptCost int `yaml:"bcrypt_cost"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: "recordstore.db", BusyTimeout: 5 * time.Second},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

// Loader reads configuration. The zero value reads ".env" from the
// working directory and the process environment.
type Loader struct {
	// EnvFile is the dotenv file to read. Empty means ".env".
	EnvFile string

	// LookupEnv replaces os.LookupEnv, for tests.
	LookupEnv func(key string) (string, bool)
}

// Load resolves configuration with the default Loader.
func Load(path string) (Config, error) {
	return Loader{}.Load(path)
}

// Load resolves configuration. An empty path skips the YAML layer; a
// named file that does not exist is an error. A missing .env is not.
func (l Loader) Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	dotenv, err := l.readDotenv()
	if err != nil {
		return Config{}, err
	}
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(get); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func (l Loader) readDotenv() (map[string]string, error) {
	name := l.EnvFile
	if name == "" {
		name = ".env"
	}
	env, err := godotenv.Read(name)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return env, nil
}

func (c *Config) applyEnv(get func(string) (string, bool)) error {
	if v, ok := get(EnvDB); ok {
		c.Database.Path = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.Logging.Level = strings.ToLower(v)
	}
	if v, ok := get(EnvLogFormat); ok {
		c.Logging.Format = strings.ToLower(v)
	}
	if v, ok := get(EnvBcryptCost); ok {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBcryptCost, err)
		}
		c.Security.BcryptCost = cost
	}
	return nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout must not be negative")
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format %q: must be text or json", c.Logging.Format)
	}
	if cost := c.Security.BcryptCost; cost != 0 && (cost < bcrypt.MinCost || cost > bcrypt.MaxCost) {
		return fmt.Errorf("security.bcrypt_cost %d: must be between %d and %d", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// SlogLevel maps Level onto a slog.Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("logging.level %q: must be debug, info, warn or error", l.Level)
}

// StoreOptions returns the backend options for Database.
func (d DatabaseConfig) StoreOptions() []store.Option {
	if d.BusyTimeout == 0 {
		return nil
	}
	return []store.Option{store.WithBusyTimeout(d.BusyTimeout)}
}
