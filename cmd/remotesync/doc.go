// Command remotesync hosts shared synchronization objects and attaches to
// them from other processes.
//
// `remotesync host` constructs the objects declared in the config file and
// serves them until interrupted. Every other command reads the session
// descriptor the host wrote, attaches as a peer, performs one operation, and
// detaches.
package main
