// Package config loads, normalizes, and validates remotesync configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// REMOTESYNC_AUTH_KEY. The Config type holds what the host and the attaching
// CLI commands need, including the declarative [[objects]] list a CLI host
// publishes.
package config
