package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://localhost:5000/api", c.ServerURL)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, 2*time.Second, c.SyncInterval)
	assert.Equal(t, 128, c.CacheSize)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_NoArgs(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "gatelog.db", cfg.DatabasePath)
	assert.Empty(t, cfg.ExportS3Bucket)
	assert.Equal(t, "exports", cfg.ExportS3Prefix)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative url", func(c *Config) { c.ServerURL = "/api" }},
		{"ftp url", func(c *Config) { c.ServerURL = "ftp://host/api" }},
		{"no database", func(c *Config) { c.DatabasePath = "" }},
		{"no key", func(c *Config) { c.KeyFile = "" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad zone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLocation(t *testing.T) {
	c := Config{}
	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	c.Timezone = "UTC"
	loc, err = c.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
