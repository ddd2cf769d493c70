// Package hostrun runs the long-lived `remotesync host` process: it builds
// the configured objects, opens the logger, pid file, ledger, and optional
// metrics sink, starts the host session, and waits for a shutdown signal.
// The descriptor is removed on the way out so late peers fail fast.
package hostrun
