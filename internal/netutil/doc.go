// Package netutil resolves the address a host advertises and picks free TCP
// ports for it.
package netutil
