// Package cache provides a SQLite-backed cache for model summaries.
//
// Entries are keyed by a SHA-256 hash of the provider name, model, and the
// rendered request context, so a cached summary is only reused for the exact
// same request. Each row stores the raw response with its creation time and
// TTL (in seconds); expired rows are skipped and deleted on read.
//
// The database lives in $XDG_CACHE_HOME/brief (or the OS-appropriate
// equivalent). All content in the key has already been through secret
// redaction.
package cache
