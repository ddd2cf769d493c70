// Package primitive implements the real objects a host shares: locks, events,
// queues, cells, dicts, and namespaces.
//
// Each object exposes a Go API for direct use and an Invoke dispatcher that
// the RPC broker drives by operation name. Values are stored as raw JSON so
// whatever a peer sends is returned byte-for-byte. Blocking operations take a
// context; when it ends they fail with ErrClosed.
package primitive
