package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gatelog/internal/flagx"
)

var knownFlags = []string{
	"-a", "-d", "-k", "-t", "-i", "-tz", "-e", "-m", "-l", "-s3-bucket", "-s3-endpoint", "-s3-prefix",
}

// parseFlags overlays cfg with command-line flags. Only the flags listed in
// knownFlags are considered so other argument consumers can share args.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("gatelog", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "API root of the gate-log service")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local state database")
	fs.StringVar(&cfg.KeyFile, "k", cfg.KeyFile, "path to the key sealing the stored token")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "per-request timeout")
	fs.DurationVar(&cfg.SyncInterval, "i", cfg.SyncInterval, "session sync interval")
	fs.StringVar(&cfg.Timezone, "tz", cfg.Timezone, "IANA timezone for entry dates")
	fs.StringVar(&cfg.ExportDir, "e", cfg.ExportDir, "export directory under the download dir")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "address for /metrics and health endpoints")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.ExportS3Bucket, "s3-bucket", cfg.ExportS3Bucket, "S3 bucket for exports")
	fs.StringVar(&cfg.ExportS3Endpoint, "s3-endpoint", cfg.ExportS3Endpoint, "S3 endpoint override")
	fs.StringVar(&cfg.ExportS3Prefix, "s3-prefix", cfg.ExportS3Prefix, "S3 key prefix for exports")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
