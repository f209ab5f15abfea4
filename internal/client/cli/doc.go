// Package cli provides the interactive gate-log client.
//
// NewApp wires the configuration, the local state database, the session
// store, the record transport and the listing controller. App.Run restores
// the persisted session in the background, keeps it in sync with other
// gatelog processes on the same database and serves a REPL until the user
// exits.
//
// Commands that need a session are refused while the persisted session is
// still being verified, and admin commands are only offered to admins.
// Listings are driven through the query controller, so "link" prints a
// location that "open" restores exactly.
package cli
