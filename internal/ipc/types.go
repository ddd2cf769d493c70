package ipc

import (
	"encoding/json"

	"remotesync/internal/registry"
)

const serviceName = "RemoteSync"

// HelloRequest opens a session on a fresh connection.
type HelloRequest struct{}

// HelloResponse identifies the host run and the names it serves.
type HelloResponse struct {
	SessionID string   `json:"session_id"`
	Names     []string `json:"names"`
}

// ResolveRequest asks for the remoting details of one name.
type ResolveRequest struct {
	Name string `json:"name"`
}

// ResolveResponse describes a served object.
type ResolveResponse struct {
	Name    string        `json:"name"`
	Kind    registry.Kind `json:"kind"`
	Exposed []string      `json:"exposed,omitempty"`
	Error   *RemoteError  `json:"error,omitempty"`
}

// CallRequest invokes one operation on a named object.
type CallRequest struct {
	Object string            `json:"object"`
	Op     string            `json:"op"`
	Args   []json.RawMessage `json:"args,omitempty"`
}

// CallResponse carries either a JSON result or the failure the object raised.
type CallResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RemoteError    `json:"error,omitempty"`
}

// RemoteError is the wire form of a host-side failure.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
