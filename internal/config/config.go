// Package config loads the settings shared by the formcrud binaries from an
// optional YAML or TOML file and FORMCRUD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formcrud/internal/logging"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvAPIURL     = "FORMCRUD_API_URL"
	EnvAPITimeout = "FORMCRUD_API_TIMEOUT"
	EnvSchema     = "FORMCRUD_SCHEMA"
	EnvLogLevel   = "FORMCRUD_LOG_LEVEL"
	EnvLogFormat  = "FORMCRUD_LOG_FORMAT"
	EnvAddr       = "FORMCRUD_ADDR"
	EnvDSN        = "FORMCRUD_DSN"
	EnvSeed       = "FORMCRUD_SEED"
)

// Config is the complete runtime configuration.
type Config struct {
	API    APIConfig      `yaml:"api" toml:"api"`
	Schema string         `yaml:"schema" toml:"schema"`
	Log    logging.Config `yaml:"log" toml:"log"`
	Server ServerConfig   `yaml:"server" toml:"server"`
}

// APIConfig addresses the REST backend.
type APIConfig struct {
	BaseURL string        `yaml:"baseURL" toml:"baseURL"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// ServerConfig configures the development backend.
type ServerConfig struct {
	Addr    string        `yaml:"addr" toml:"addr"`
	DSN     string        `yaml:"dsn" toml:"dsn"`
	Seed    string        `yaml:"seed" toml:"seed"`
	Latency time.Duration `yaml:"latency" toml:"latency"`
}

// Default returns the built-in configuration. An empty Schema selects the
// embedded user schema.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:3001/api",
			Timeout: 10 * time.Second,
		},
		Log: logging.DefaultConfig(),
		Server: ServerConfig{
			Addr: ":3001",
			DSN:  "file:formcrud.db?_pragma=busy_timeout(5000)",
		},
	}
}

// Load reads path (when non-empty), fills unset values from Default and
// applies environment overrides. The result is validated.
func Load(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}
	if err := mergo.Merge(&cfg, Default()); err != nil {
		return Config{}, fmt.Errorf("config: apply defaults: %w", err)
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes a configuration file without applying defaults. Files
// ending in .toml are decoded as TOML; anything else as YAML, which also
// covers JSON.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the FORMCRUD_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		value, ok := lookup(key)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}

	if v, ok := get(EnvAPIURL); ok {
		cfg.API.BaseURL = v
	}
	if v, ok := get(EnvAPITimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvAPITimeout, err)
		}
		cfg.API.Timeout = d
	}
	if v, ok := get(EnvSchema); ok {
		cfg.Schema = v
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	if v, ok := get(EnvLogFormat); ok {
		cfg.Log.Format = v
	}
	if v, ok := get(EnvAddr); ok {
		cfg.Server.Addr = v
	}
	if v, ok := get(EnvDSN); ok {
		cfg.Server.DSN = v
	}
	if v, ok := get(EnvSeed); ok {
		cfg.Server.Seed = v
	}
	return nil
}

// Validate checks the values the binaries depend on.
func (c Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("config: api.baseURL %q must be an absolute http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("config: api.timeout must not be negative"))
	}
	if c.Server.Latency < 0 {
		errs = append(errs, errors.New("config: server.latency must not be negative"))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: log: %w", err))
	}
	return errors.Join(errs...)
}
