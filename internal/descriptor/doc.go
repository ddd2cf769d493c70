// Package descriptor encodes the file a host writes so peers can find it.
//
// The file is TOML: a [connection] table with host, port, and a base64
// authentication key, followed by [[objects]], [[context_wrap]], and
// [[formats]] arrays that carry the resolved object table. Peers never derive
// bindings or hints themselves; they read what the host resolved.
//
// Writers hold an exclusive flock on a sidecar lock file and replace the
// descriptor by rename, so readers never observe a partial write.
package descriptor
