package proxy_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"remotesync/internal/primitive"
	"remotesync/internal/proxy"
	"remotesync/internal/registry"
)

type recordedCall struct {
	object string
	op     string
	args   []string
}

// fakeCaller records calls and answers from a per-op script.
type fakeCaller struct {
	mu      sync.Mutex
	calls   []recordedCall
	results map[string]string
	errs    map[string]error
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{results: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeCaller) Call(object, op string, args primitive.Args, reply any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := recordedCall{object: object, op: op}
	for _, arg := range args {
		call.args = append(call.args, string(arg))
	}
	f.calls = append(f.calls, call)
	if err := f.errs[op]; err != nil {
		return err
	}
	result, ok := f.results[op]
	if !ok || reply == nil {
		return nil
	}
	return json.Unmarshal([]byte(result), reply)
}

func (f *fakeCaller) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		ops = append(ops, call.op)
	}
	return ops
}

func equalOps(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestNewSelectsHandleByKind(t *testing.T) {
	caller := newFakeCaller()
	for _, kind := range registry.Kinds() {
		handle := proxy.New(caller, "obj", kind)
		if handle.Kind() != kind || handle.Name() != "obj" {
			t.Fatalf("%s: unexpected handle identity %s/%s", kind, handle.Name(), handle.Kind())
		}
		switch kind {
		case registry.KindLock:
			if _, ok := handle.(*proxy.Lock); !ok {
				t.Fatalf("lock handle has type %T", handle)
			}
		case registry.KindDict:
			if _, ok := handle.(*proxy.Dict); !ok {
				t.Fatalf("dict handle has type %T", handle)
			}
		case registry.KindQueue:
			if _, ok := handle.(*proxy.Queue); !ok {
				t.Fatalf("queue handle has type %T", handle)
			}
		}
	}
	opaque := proxy.New(caller, "thing", registry.Kind("widget"))
	if _, ok := opaque.(*proxy.Opaque); !ok {
		t.Fatalf("unknown kind should build an opaque handle, got %T", opaque)
	}
	if opaque.Kind() != registry.KindOpaque {
		t.Fatalf("opaque kind = %q", opaque.Kind())
	}
}

func TestQueueHandleForwardsArguments(t *testing.T) {
	caller := newFakeCaller()
	caller.results["get"] = `{"n":7}`
	q := proxy.New(caller, "jobs", registry.KindQueue).(*proxy.Queue)

	if err := q.PutNowait("x"); err != nil {
		t.Fatalf("PutNowait: %v", err)
	}
	var out map[string]int
	if err := q.GetTimeout(&out, 1500*time.Millisecond); err != nil {
		t.Fatalf("GetTimeout: %v", err)
	}
	if out["n"] != 7 {
		t.Fatalf("decoded %v", out)
	}

	put := caller.calls[0]
	if put.object != "jobs" || put.op != "put" || len(put.args) != 2 || put.args[0] != `"x"` || put.args[1] != "false" {
		t.Fatalf("unexpected put call %+v", put)
	}
	get := caller.calls[1]
	if len(get.args) != 2 || get.args[0] != "true" || get.args[1] != "1.5" {
		t.Fatalf("unexpected get call %+v", get)
	}
}

func TestLockAcquireTimeoutReportsResult(t *testing.T) {
	caller := newFakeCaller()
	caller.results["acquire"] = "false"
	lock := proxy.New(caller, "lock", registry.KindLock).(*proxy.Lock)
	ok, err := lock.AcquireTimeout(-1)
	if err != nil || ok {
		t.Fatalf("AcquireTimeout = %v, %v", ok, err)
	}
	if got := caller.calls[0].args; len(got) != 2 || got[1] != "-1" {
		t.Fatalf("expected no-timeout encoding, got %v", got)
	}
}

func TestScopedReleasesOnSuccessAndError(t *testing.T) {
	caller := newFakeCaller()
	caller.results["acquire"] = "true"
	inner := proxy.New(caller, "lock", registry.KindLock)
	scoped, err := proxy.Bind(caller, inner, registry.Binding{Acquire: "acquire", Release: "release"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	ran := false
	if err := scoped.With(func() error { ran = true; return nil }); err != nil {
		t.Fatalf("With: %v", err)
	}
	if !ran {
		t.Fatal("body did not run")
	}

	boom := errors.New("boom")
	if err := scoped.With(func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("With error = %v", err)
	}
	if ops := caller.ops(); !equalOps(ops, "acquire", "release", "acquire", "release") {
		t.Fatalf("unexpected op sequence %v", ops)
	}
	if scoped.Name() != "lock" || scoped.Inner() != inner {
		t.Fatal("scoped handle should expose the wrapped handle")
	}
}

func TestScopedReleasesOnPanic(t *testing.T) {
	caller := newFakeCaller()
	scoped, err := proxy.Bind(caller, proxy.New(caller, "lock", registry.KindLock),
		registry.Binding{Acquire: "acquire", Release: "release"})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = scoped.With(func() error { panic("body failed") })
	}()
	if ops := caller.ops(); !equalOps(ops, "acquire", "release") {
		t.Fatalf("unexpected op sequence %v", ops)
	}
}

func TestScopedSkipsBodyWhenAcquireFails(t *testing.T) {
	caller := newFakeCaller()
	caller.errs["acquire"] = errors.New("connection lost")
	scoped, _ := proxy.Bind(caller, proxy.New(caller, "lock", registry.KindLock),
		registry.Binding{Acquire: "acquire", Release: "release"})

	ran := false
	if err := scoped.With(func() error { ran = true; return nil }); err == nil {
		t.Fatal("expected acquire failure")
	}
	if ran {
		t.Fatal("body ran without the lock")
	}
	if ops := caller.ops(); !equalOps(ops, "acquire") {
		t.Fatalf("release should not run after failed acquire, got %v", ops)
	}

	caller.errs = map[string]error{}
	caller.results["acquire"] = "false"
	if err := scoped.With(func() error { return nil }); !errors.Is(err, proxy.ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
}

func TestScopedReportsReleaseFailure(t *testing.T) {
	caller := newFakeCaller()
	caller.errs["release"] = primitive.ErrNotLocked
	scoped, _ := proxy.Bind(caller, proxy.New(caller, "lock", registry.KindLock),
		registry.Binding{Acquire: "acquire", Release: "release"})
	if err := scoped.With(func() error { return nil }); !errors.Is(err, primitive.ErrNotLocked) {
		t.Fatalf("expected release failure, got %v", err)
	}
}

func TestBindRejectsIncompleteBinding(t *testing.T) {
	caller := newFakeCaller()
	if _, err := proxy.Bind(caller, proxy.New(caller, "x", registry.KindLock), registry.Binding{Acquire: "acquire"}); err == nil {
		t.Fatal("expected error for missing release")
	}
	if _, err := proxy.Bind(caller, nil, registry.Binding{Acquire: "a", Release: "r"}); err == nil {
		t.Fatal("expected error for nil handle")
	}
}
