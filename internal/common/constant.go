// Package common contains constants and small helpers shared by the client
// packages.
package common

const (
	// AuthorizationHeader carries the bearer session token on every request.
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// RequestIDHeader correlates client log lines with server log lines.
	RequestIDHeader = "X-Request-ID"

	UserAgent = "gatelog-cli"
)
