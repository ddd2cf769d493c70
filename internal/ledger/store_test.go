package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"remotesync/internal/ledger"
)

func openStore(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordStartAndStop(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := store.RecordStart(ctx, ledger.Session{
		ID:             "s1",
		DescriptorPath: "/tmp/session.toml",
		Address:        "192.0.2.1:40000",
		PID:            4242,
		Objects:        []string{"lock", "jobs"},
		StartedAt:      started,
	})
	if err != nil {
		t.Fatalf("RecordStart: %v", err)
	}

	session, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !session.Active() {
		t.Fatal("expected new session to be active")
	}
	if len(session.Objects) != 2 || session.Objects[1] != "jobs" {
		t.Fatalf("unexpected objects %v", session.Objects)
	}
	if !session.StartedAt.Equal(started) {
		t.Fatalf("started_at = %v, want %v", session.StartedAt, started)
	}

	if err := store.RecordStop(ctx, "s1", started.Add(time.Minute)); err != nil {
		t.Fatalf("RecordStop: %v", err)
	}
	session, err = store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get after stop: %v", err)
	}
	if session.Active() || !session.StoppedAt.Equal(started.Add(time.Minute)) {
		t.Fatalf("unexpected stop state %+v", session.StoppedAt)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := store.RecordStart(ctx, ledger.Session{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("RecordStart %s: %v", id, err)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "new" || all[2].ID != "old" {
		t.Fatalf("unexpected order %+v", all)
	}
	if all[0].Objects == nil || len(all[0].Objects) != 0 {
		t.Fatalf("expected empty object list, got %#v", all[0].Objects)
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 || limited[1].ID != "mid" {
		t.Fatalf("unexpected limited list %+v", limited)
	}
}

func TestUnknownSessions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if _, err := store.Get(ctx, "ghost"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("Get ghost = %v", err)
	}
	if err := store.RecordStop(ctx, "ghost", time.Now()); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("RecordStop ghost = %v", err)
	}
	if err := store.RecordStart(ctx, ledger.Session{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.RecordStart(context.Background(), ledger.Session{ID: "keep"}); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	_ = store.Close()

	reopened, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}
