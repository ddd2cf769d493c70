// Package testsupport holds helpers shared by package tests: temp-dir
// configurations, ledger stores, and loopback host/peer session pairs.
package testsupport
