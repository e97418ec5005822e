// Package config handles loading and resolving eqviz configuration.
// The API base URL is the only setting read from the environment.
// Resolution order (first non-empty value wins):
//  1. CLI flag --api-base
//  2. Environment variable EQVIZ_API_BASE (a .env file in the working
//     directory is loaded first, without overriding the real environment)
//  3. config.json in the current working directory
//  4. DefaultAPIBase
//
// Credentials are never part of the configuration; they live in memory only.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultConfigFile = "config.json"
	DefaultEnvFile    = ".env"
	DefaultAPIBase    = "http://127.0.0.1:8000/api"
	DefaultFormat     = "table"
	DefaultTimeout    = 30 * time.Second
	DefaultRate       = 5.0
	DefaultListen     = "127.0.0.1:8080"
	EnvAPIBase        = "EQVIZ_API_BASE"
)

// File is the on-disk representation of config.json.
type File struct {
	APIBase       string  `json:"api_base"`
	DefaultFormat string  `json:"default_format"`
	Timeout       string  `json:"timeout"`
	Rate          float64 `json:"rate"`
	DBPath        string  `json:"db_path"`
	Listen        string  `json:"listen"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	APIBase    string
	Format     string
	Timeout    time.Duration
	Rate       float64
	DBPath     string
	Listen     string
	ConfigPath string // path of the config.json that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Load resolves configuration from all sources.
// flagAPIBase is the value of --api-base (empty string if not set).
func Load(flagAPIBase string) (*Config, error) {
	cfg := &Config{
		APIBase: DefaultAPIBase,
		Format:  DefaultFormat,
		Timeout: DefaultTimeout,
		Rate:    DefaultRate,
		Listen:  DefaultListen,
	}

	// Layer 1: config.json (lowest priority)
	if f, path, err := loadFile(); err == nil {
		applyFile(cfg, f, path)
	}

	// Layer 2: environment, optionally seeded from .env
	_ = godotenv.Load(DefaultEnvFile)
	if v := strings.TrimSpace(os.Getenv(EnvAPIBase)); v != "" {
		cfg.APIBase = v
	}

	// Layer 3: CLI flag (highest priority)
	if flagAPIBase != "" {
		cfg.APIBase = flagAPIBase
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".eqviz", "reports.db")
		}
	}

	return cfg, nil
}

// Validate returns an error if the API base is not an absolute http(s) URL.
func (c *Config) Validate() error {
	if c.APIBase == "" {
		return errors.New("API base URL is empty")
	}
	u, err := url.Parse(c.APIBase)
	if err != nil {
		return fmt.Errorf("invalid API base URL %q: %w", c.APIBase, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf(
			"invalid API base URL %q: expected http(s)://host[:port]/path\n\n"+
				"Set it one of these ways:\n"+
				"  1. CLI flag:        eqviz --api-base http://127.0.0.1:8000/api ...\n"+
				"  2. Environment:     export %s=http://127.0.0.1:8000/api\n"+
				"  3. config.json:     {\"api_base\": \"http://127.0.0.1:8000/api\"}",
			c.APIBase, EnvAPIBase,
		)
	}
	return nil
}

// APIHost returns the API base with trailing slashes and a trailing /api
// segment removed. Report paths returned by the API are relative to it.
func (c *Config) APIHost() string {
	return APIHost(c.APIBase)
}

// APIHost strips trailing slashes and one trailing "/api" from base.
func APIHost(base string) string {
	host := strings.TrimRight(base, "/")
	return strings.TrimSuffix(host, "/api")
}

// loadFile attempts to read config.json from the current working directory.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config.json not found at %s", path)
		}
		return nil, "", fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing config.json: %w", err)
	}
	return &f, path, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.APIBase != "" {
		cfg.APIBase = f.APIBase
	}
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.Listen != "" {
		cfg.Listen = f.Listen
	}
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `eqviz config init`.
func Template() File {
	return File{
		APIBase:       DefaultAPIBase,
		DefaultFormat: DefaultFormat,
		Timeout:       "30s",
		Rate:          DefaultRate,
		Listen:        DefaultListen,
	}
}

// ReadFile parses the config file at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, nil
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
