// Package buildinfo carries version metadata injected at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/gatelog/internal/buildinfo.Version=1.2.0"
package buildinfo

import "fmt"

var (
	Version = "N/A"
	Date    = "N/A"
	Commit  = "N/A"
)

// String formats the build metadata for the startup banner.
func String() string {
	return fmt.Sprintf("Build version: %s\nBuild date: %s\nBuild commit: %s", Version, Date, Commit)
}
