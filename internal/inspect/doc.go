// Package inspect summarizes the state of every shared object in a session.
//
// Render emits one "<name>: <repr>" line per object in registration order;
// queue-hinted names gain "E" or the size (with "F" when full) and
// event-hinted names gain "is_set=<bool>". RenderTable shows the same data
// as a go-pretty table for the CLI.
package inspect
