// Package proxy provides the typed remote handles sessions bind under each
// shared name, plus the Scoped adapter that restores acquire-on-entry,
// release-on-exit use for lock-like objects.
//
// Handles carry no state beyond their name; every method is a single forwarded
// operation. New picks the handle type from the kind the host resolved, so a
// peer builds exactly the same handles as the host without seeing the real
// objects.
package proxy
