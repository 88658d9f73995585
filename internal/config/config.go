package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"

	"github.com/itcaat/ebaylog/internal/parser"
)

// ExampleConfig holds the defaults, also usable as a config file template
//
//go:embed example-config.yaml
var ExampleConfig string

// Config is the ebaylog configuration file
type Config struct {
	Server  ServerConfig      `yaml:"server"`
	Fetch   FetchConfig       `yaml:"fetch"`
	Logging zeroconfig.Config `yaml:"logging"`
}

// ServerConfig controls the HTTP front end
type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// FetchConfig controls requests to eBay
type FetchConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	DetailConcurrency int           `yaml:"detail_concurrency"`
}

// Default returns the configuration described by ExampleConfig
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(ExampleConfig), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse example config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config file at path on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err = Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data over cfg and validates the result
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg.Validate()
}

var (
	ErrInvalidTimeout     = errors.New("timeouts must be positive")
	ErrInvalidConcurrency = errors.New("fetch.detail_concurrency must be at least 1")
	ErrWriteTimeoutShort  = errors.New("server.write_timeout does not cover a full search")
)

// SearchBudget is the longest a search can take: the search page plus the
// item pages, fetched detail_concurrency at a time, each up to fetch.timeout
func (c *FetchConfig) SearchBudget() time.Duration {
	rounds := (parser.MaxListings + c.DetailConcurrency - 1) / c.DetailConcurrency
	return time.Duration(1+rounds) * c.Timeout
}

// Validate rejects configs the searcher or server cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Fetch.Timeout <= 0:
		return fmt.Errorf("%w: fetch.timeout is %s", ErrInvalidTimeout, c.Fetch.Timeout)
	case c.Server.ReadTimeout <= 0:
		return fmt.Errorf("%w: server.read_timeout is %s", ErrInvalidTimeout, c.Server.ReadTimeout)
	case c.Server.WriteTimeout <= 0:
		return fmt.Errorf("%w: server.write_timeout is %s", ErrInvalidTimeout, c.Server.WriteTimeout)
	case c.Fetch.DetailConcurrency < 1:
		return fmt.Errorf("%w, got %d", ErrInvalidConcurrency, c.Fetch.DetailConcurrency)
	case c.Server.WriteTimeout <= c.Fetch.SearchBudget():
		return fmt.Errorf("%w: %s, need more than %s", ErrWriteTimeoutShort, c.Server.WriteTimeout, c.Fetch.SearchBudget())
	}
	return nil
}
