package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gatelog/internal/flagx"
	"github.com/dmitrijs2005/gatelog/internal/timex"
)

// JsonConfig is the on-disk form. timex.Duration lets intervals be written
// as "30s" or integer nanoseconds.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	DatabasePath   string         `json:"database_path"`
	KeyFile        string         `json:"key_file"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	SyncInterval   timex.Duration `json:"sync_interval"`
	Timezone       string         `json:"timezone"`
	DownloadDir    string         `json:"download_dir"`
	ExportDir      string         `json:"export_dir"`
	ExportS3       struct {
		Bucket   string `json:"bucket"`
		Region   string `json:"region"`
		Endpoint string `json:"endpoint"`
		User     string `json:"user"`
		Password string `json:"password"`
		Prefix   string `json:"prefix"`
	} `json:"export_s3"`
	MetricsAddr string         `json:"metrics_addr"`
	LogLevel    string         `json:"log_level"`
	CacheSize   *int           `json:"cache_size"`
	CacheTTL    timex.Duration `json:"cache_ttl"`
}

// parseJson overlays cfg with the non-empty values of the JSON file named by
// -c or -config in args. Without such a flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.KeyFile, jc.KeyFile)
	setString(&cfg.Timezone, jc.Timezone)
	setString(&cfg.DownloadDir, jc.DownloadDir)
	setString(&cfg.ExportDir, jc.ExportDir)
	setString(&cfg.ExportS3Bucket, jc.ExportS3.Bucket)
	setString(&cfg.ExportS3Region, jc.ExportS3.Region)
	setString(&cfg.ExportS3Endpoint, jc.ExportS3.Endpoint)
	setString(&cfg.ExportS3User, jc.ExportS3.User)
	setString(&cfg.ExportS3Password, jc.ExportS3.Password)
	setString(&cfg.ExportS3Prefix, jc.ExportS3.Prefix)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.CacheTTL.Duration != 0 {
		cfg.CacheTTL = jc.CacheTTL.Duration
	}
	if jc.CacheSize != nil {
		cfg.CacheSize = *jc.CacheSize
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
