// Package ipc serves shared objects to peers over JSON-RPC and ships the
// matching client.
//
// Connections are plain TCP. Before the JSON-RPC codec takes over, both ends
// run a mutual HMAC-SHA256 challenge so neither side talks to a process that
// lacks the shared key. After that the RemoteSync service exposes Hello,
// Resolve, and Invoke. Failures raised by an object travel as a code plus a
// message and are rebuilt into RemoteOperationError values that unwrap to the
// primitive package sentinels.
//
// Servers report call counts, error counts, and latency samples to a
// go-metrics sink labelled by object and operation.
package ipc
