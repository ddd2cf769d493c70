package inspect_test

import (
	"strings"
	"testing"

	"remotesync/internal/inspect"
	"remotesync/internal/primitive"
	"remotesync/internal/registry"
	"remotesync/internal/session"
	"remotesync/internal/testsupport"
)

func startPair(t *testing.T) (*session.Session, *session.Session) {
	t.Helper()
	cell, err := primitive.NewCell([]byte("0"))
	if err != nil {
		t.Fatalf("NewCell: %v", err)
	}
	dict, err := primitive.NewDict([]byte(`{"b": [1, 2]}`))
	if err != nil {
		t.Fatalf("NewDict: %v", err)
	}
	host := testsupport.StartHost(t,
		session.Object{Name: "lock", Value: primitive.NewLock()},
		session.Object{Name: "ready", Value: primitive.NewEvent()},
		session.Object{Name: "jobs", Value: primitive.NewQueue(2)},
		session.Object{Name: "settings", Value: dict},
		session.Object{Name: "counter", Value: cell},
	)
	peer := testsupport.Attach(t, host)
	return host, peer
}

func TestRenderLinesFollowRegistrationOrder(t *testing.T) {
	host, peer := startPair(t)

	want := strings.Join([]string{
		"lock: <Lock unlocked>",
		"ready: <Event set=false> is_set=false",
		"jobs: <Queue qsize=0 maxsize=2> E",
		`settings: {"b":[1,2]}`,
		"counter: 0",
	}, "\n")
	for _, s := range []*session.Session{host, peer} {
		got, err := inspect.Render(s)
		if err != nil {
			t.Fatalf("%s render: %v", s.Role(), err)
		}
		if got != want {
			t.Fatalf("%s render:\n%s\nwant:\n%s", s.Role(), got, want)
		}
	}
}

func TestRenderQueueAndEventDetail(t *testing.T) {
	host, peer := startPair(t)
	q, _ := peer.Queue("jobs")
	ev, _ := host.Event("ready")

	if err := q.Put("a"); err != nil {
		t.Fatalf("put: %v", err)
	}
	out, err := inspect.Render(peer)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "jobs: <Queue qsize=1 maxsize=2> 1\n") {
		t.Fatalf("expected partial queue detail, got:\n%s", out)
	}

	if err := q.Put("b"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := ev.Set(); err != nil {
		t.Fatalf("set: %v", err)
	}
	out, err = inspect.Render(host)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"jobs: <Queue qsize=2 maxsize=2> 2F",
		"ready: <Event set=true> is_set=true",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderDoesNotMutate(t *testing.T) {
	host, peer := startPair(t)
	q, _ := host.Queue("jobs")
	if err := q.Put(1); err != nil {
		t.Fatalf("put: %v", err)
	}

	first, err := inspect.Render(peer)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := inspect.Render(peer)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if first != second {
		t.Fatalf("consecutive renders differ:\n%s\n---\n%s", first, second)
	}
	if size, err := q.Size(); err != nil || size != 1 {
		t.Fatalf("queue size changed to %d (%v)", size, err)
	}
	ev, _ := host.Event("ready")
	if set, err := ev.IsSet(); err != nil || set {
		t.Fatalf("event state changed: %v %v", set, err)
	}
	lock, _ := host.Lock("lock")
	if locked, err := lock.Locked(); err != nil || locked {
		t.Fatalf("lock state changed: %v %v", locked, err)
	}
}

func TestRenderTable(t *testing.T) {
	_, peer := startPair(t)
	out, err := inspect.RenderTable(peer, inspect.TableOptions{})
	if err != nil {
		t.Fatalf("RenderTable: %v", err)
	}
	for _, want := range []string{"NAME", "KIND", "Queue", "Dict", "jobs", "is_set=false"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "\n") < 6 {
		t.Fatalf("expected a row per object:\n%s", out)
	}
}

func TestEntryDetail(t *testing.T) {
	cases := []struct {
		entry inspect.Entry
		want  string
	}{
		{inspect.Entry{Name: "q", Repr: "r", Format: registry.FormatQueue, Empty: true}, "q: r E"},
		{inspect.Entry{Name: "q", Repr: "r", Format: registry.FormatQueue, Size: 3}, "q: r 3"},
		{inspect.Entry{Name: "q", Repr: "r", Format: registry.FormatQueue, Size: 4, Full: true}, "q: r 4F"},
		{inspect.Entry{Name: "e", Repr: "r", Format: registry.FormatEvent, IsSet: true}, "e: r is_set=true"},
		{inspect.Entry{Name: "d", Repr: "{}"}, "d: {}"},
	}
	for _, tc := range cases {
		if got := tc.entry.Line(); got != tc.want {
			t.Errorf("Line() = %q, want %q", got, tc.want)
		}
	}
}

func TestRenderWithRestrictedExposure(t *testing.T) {
	host := testsupport.StartHost(t,
		session.Object{Name: "jobs", Value: primitive.NewQueue(2), Exposed: []string{"put", "get"}},
		session.Object{Name: "ready", Value: primitive.NewEvent(), Exposed: []string{"set", "wait"}},
	)
	peer := testsupport.Attach(t, host)

	q, _ := peer.Queue("jobs")
	if err := q.Put("a"); err != nil {
		t.Fatalf("put: %v", err)
	}
	want := strings.Join([]string{
		"jobs: <Queue qsize=1 maxsize=2> 1",
		"ready: <Event set=false> is_set=false",
	}, "\n")
	for _, s := range []*session.Session{host, peer} {
		got, err := inspect.Render(s)
		if err != nil {
			t.Fatalf("%s render: %v", s.Role(), err)
		}
		if got != want {
			t.Fatalf("%s render:\n%s\nwant:\n%s", s.Role(), got, want)
		}
	}
	if _, err := inspect.RenderTable(peer, inspect.TableOptions{}); err != nil {
		t.Fatalf("RenderTable: %v", err)
	}
}
