package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/gatelog/internal/logging"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime settings for the gate-log client.
//
// ServerURL is the API root, e.g. http://localhost:5000/api; record media
// paths are resolved against its origin. Timezone is an IANA name used for
// entry date-times and the dashboard; empty means the system zone.
type Config struct {
	ServerURL      string
	DatabasePath   string
	KeyFile        string
	RequestTimeout time.Duration
	SyncInterval   time.Duration
	Timezone       string

	// DownloadDir is the base directory for staged uploads and exports.
	DownloadDir string
	ExportDir   string

	ExportS3Bucket   string
	ExportS3Region   string
	ExportS3Endpoint string
	ExportS3User     string
	ExportS3Password string
	// ExportS3Prefix is the object key prefix for exports in the bucket.
	ExportS3Prefix string

	MetricsAddr string
	LogLevel    string
	CacheSize   int
	CacheTTL    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:5000/api"
	c.DatabasePath = "gatelog.db"
	c.KeyFile = "gatelog.key"
	c.RequestTimeout = 30 * time.Second
	c.SyncInterval = 2 * time.Second
	c.DownloadDir = "."
	c.ExportDir = "exports"
	c.ExportS3Region = "us-east-1"
	c.ExportS3Prefix = "exports"
	c.LogLevel = "warn"
	c.CacheSize = 128
	c.CacheTTL = 5 * time.Minute
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: server url %q must be an absolute http(s) URL", ErrInvalidConfig, c.ServerURL)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database path is required", ErrInvalidConfig)
	}
	if c.KeyFile == "" {
		return fmt.Errorf("%w: key file is required", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 || c.SyncInterval <= 0 {
		return fmt.Errorf("%w: request timeout and sync interval must be positive", ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// LoadConfig applies defaults, then overlays values from the JSON file named
// by -c/-config and finally command-line flags. Later sources take precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
