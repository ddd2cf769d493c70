package testsupport

import (
	"testing"

	"remotesync/internal/config"
	"remotesync/internal/ledger"
)

// MustOpenLedger opens the config's ledger database and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
