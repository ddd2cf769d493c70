// Package session binds shared objects by name for the two roles of a
// remotesync deployment.
//
// NewHost owns the real objects: it plans their kinds, wrap bindings and
// format hints, starts the broker, writes the descriptor, and binds a handle
// per name through its own loopback connection. NewPeer needs only the
// descriptor file; it authenticates against the host it names, checks the
// host is the run that wrote the file, and binds the identical handle table.
//
// Construction failures are typed (ConfigurationError, DescriptorIOError,
// ConnectionError) and never retried here. Failures raised by the real
// objects come back as RemoteOperationError wrapping the object's own
// sentinel, so errors.Is(err, primitive.ErrEmpty) reads the same on either
// role.
package session
