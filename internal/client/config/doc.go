// Package config loads runtime configuration for the gate-log client.
//
// Sources, in increasing precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// Supported flags
//
//	-a string        API root, e.g. http://localhost:5000/api
//	-d string        local state database
//	-k string        key file sealing the stored token
//	-t duration      per-request timeout
//	-i duration      session sync interval
//	-tz string       IANA timezone for entry dates
//	-e string        export directory
//	-m string        metrics/health listen address (empty disables)
//	-l string        log level
//	-s3-bucket       export to this S3 bucket instead of a local file
//	-s3-endpoint     S3-compatible endpoint override
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:5000/api",
//	  "request_timeout": "30s",
//	  "sync_interval": "2s",
//	  "timezone": "Asia/Kolkata",
//	  "export_s3": {"bucket": "exports", "region": "us-east-1"},
//	  "cache_size": 128,
//	  "cache_ttl": "5m"
//	}
//
// S3 credentials are read from the JSON file only.
package config
