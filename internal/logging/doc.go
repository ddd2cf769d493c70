// Package logging assembles the slog loggers used by hosts, peers, and the
// CLI.
//
// It owns the console and JSON handlers, level parsing, output routing, and
// the standard field keys (component, event_type, error_hint, impact,
// session_id) that warnings are expected to carry. NewNop returns a logger for
// tests and wiring code that has nowhere to write.
package logging
