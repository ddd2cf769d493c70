package primitive_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"remotesync/internal/primitive"
)

func invoke(t *testing.T, obj primitive.Object, op string, values ...any) any {
	t.Helper()
	args, err := primitive.EncodeArgs(values...)
	if err != nil {
		t.Fatalf("EncodeArgs: %v", err)
	}
	result, err := obj.Invoke(context.Background(), op, args)
	if err != nil {
		t.Fatalf("%s: %v", op, err)
	}
	return result
}

func TestLockAcquireRelease(t *testing.T) {
	lock := primitive.NewLock()
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, true, primitive.NoTimeout)
	if err != nil || !ok {
		t.Fatalf("first acquire = %v, %v", ok, err)
	}
	ok, err = lock.Acquire(ctx, false, primitive.NoTimeout)
	if err != nil || ok {
		t.Fatalf("non-blocking acquire of held lock = %v, %v", ok, err)
	}
	ok, err = lock.Acquire(ctx, true, 20*time.Millisecond)
	if err != nil || ok {
		t.Fatalf("timed acquire of held lock = %v, %v", ok, err)
	}
	if !lock.Locked() {
		t.Fatal("expected lock to report locked")
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := lock.Release(); !errors.Is(err, primitive.ErrNotLocked) {
		t.Fatalf("second release = %v, want ErrNotLocked", err)
	}
}

func TestLockAcquireUnblocksOnCancel(t *testing.T) {
	lock := primitive.NewLock()
	if ok, _ := lock.Acquire(context.Background(), false, primitive.NoTimeout); !ok {
		t.Fatal("expected acquire")
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := lock.Acquire(ctx, true, primitive.NoTimeout)
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, primitive.ErrClosed) {
			t.Fatalf("acquire after cancel = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked acquire did not observe cancellation")
	}
}

func TestLockInvokeDefaultsToBlocking(t *testing.T) {
	lock := primitive.NewLock()
	if got := invoke(t, lock, "acquire"); got != true {
		t.Fatalf("acquire = %v", got)
	}
	if got := invoke(t, lock, "acquire", false); got != false {
		t.Fatalf("non-blocking acquire = %v", got)
	}
	if got := invoke(t, lock, "repr"); got != "<Lock locked>" {
		t.Fatalf("repr = %v", got)
	}
}

func TestEventWait(t *testing.T) {
	event := primitive.NewEvent()
	ctx := context.Background()

	set, err := event.Wait(ctx, 10*time.Millisecond)
	if err != nil || set {
		t.Fatalf("wait on cleared event = %v, %v", set, err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		event.Set()
	}()
	set, err = event.Wait(ctx, primitive.NoTimeout)
	if err != nil || !set {
		t.Fatalf("wait after set = %v, %v", set, err)
	}
	if !event.IsSet() {
		t.Fatal("expected event to stay set")
	}
	event.Clear()
	if event.IsSet() {
		t.Fatal("expected event to be cleared")
	}
	event.Set()
	event.Set()
	if got := invoke(t, event, "repr"); got != "<Event set=true>" {
		t.Fatalf("repr = %v", got)
	}
}

func TestQueueBoundedSemantics(t *testing.T) {
	q := primitive.NewQueue(1)
	ctx := context.Background()

	if err := q.Put(ctx, json.RawMessage(`"a"`), true, primitive.NoTimeout); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !q.Full() {
		t.Fatal("expected queue to be full")
	}
	if err := q.Put(ctx, json.RawMessage(`"b"`), false, primitive.NoTimeout); !errors.Is(err, primitive.ErrFull) {
		t.Fatalf("non-blocking put on full queue = %v", err)
	}
	if err := q.Put(ctx, json.RawMessage(`"b"`), true, 10*time.Millisecond); !errors.Is(err, primitive.ErrFull) {
		t.Fatalf("timed put on full queue = %v", err)
	}

	item, err := q.Get(ctx, true, primitive.NoTimeout)
	if err != nil || string(item) != `"a"` {
		t.Fatalf("get = %s, %v", item, err)
	}
	if _, err := q.Get(ctx, false, primitive.NoTimeout); !errors.Is(err, primitive.ErrEmpty) {
		t.Fatalf("non-blocking get on empty queue = %v", err)
	}

	got := make(chan json.RawMessage, 1)
	go func() {
		item, err := q.Get(ctx, true, primitive.NoTimeout)
		if err != nil {
			t.Errorf("blocking get: %v", err)
		}
		got <- item
	}()
	select {
	case <-got:
		t.Fatal("get returned before an item was put")
	case <-time.After(30 * time.Millisecond):
	}
	if err := q.Put(ctx, json.RawMessage(`2`), true, primitive.NoTimeout); err != nil {
		t.Fatalf("put: %v", err)
	}
	select {
	case item := <-got:
		if string(item) != "2" {
			t.Fatalf("blocked get returned %s", item)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked get never returned")
	}
}

func TestQueueUnbounded(t *testing.T) {
	q := primitive.NewQueue(0)
	for i := range 5 {
		invoke(t, q, "put", i)
	}
	if got := invoke(t, q, "qsize"); got != 5 {
		t.Fatalf("qsize = %v", got)
	}
	if got := invoke(t, q, "full"); got != false {
		t.Fatalf("full = %v", got)
	}
	if got := invoke(t, q, "repr"); got != "<Queue qsize=5 maxsize=0>" {
		t.Fatalf("repr = %v", got)
	}
}

func TestDictOperations(t *testing.T) {
	d, err := primitive.NewDict(json.RawMessage(`{"a":1}`))
	if err != nil {
		t.Fatalf("NewDict: %v", err)
	}
	invoke(t, d, "set", "b", []int{1, 2})
	if got := invoke(t, d, "len"); got != 2 {
		t.Fatalf("len = %v", got)
	}
	value, err := d.Get("b")
	if err != nil || string(value) != "[1,2]" {
		t.Fatalf("get b = %s, %v", value, err)
	}
	if _, err := d.Get("missing"); !errors.Is(err, primitive.ErrKeyNotFound) {
		t.Fatalf("get missing = %v", err)
	}
	if got := invoke(t, d, "lookup", "missing", "fallback"); string(got.(json.RawMessage)) != `"fallback"` {
		t.Fatalf("lookup default = %v", got)
	}
	if got := invoke(t, d, "setdefault", "c", 3); string(got.(json.RawMessage)) != "3" {
		t.Fatalf("setdefault = %v", got)
	}
	if got := invoke(t, d, "setdefault", "c", 4); string(got.(json.RawMessage)) != "3" {
		t.Fatalf("setdefault existing = %v", got)
	}
	if got := invoke(t, d, "pop", "a"); string(got.(json.RawMessage)) != "1" {
		t.Fatalf("pop = %v", got)
	}
	if _, err := d.Invoke(context.Background(), "pop", mustArgs(t, "a")); !errors.Is(err, primitive.ErrKeyNotFound) {
		t.Fatalf("pop missing = %v", err)
	}
	if got := invoke(t, d, "pop", "a", nil); string(got.(json.RawMessage)) != "null" {
		t.Fatalf("pop with default = %v", got)
	}
	invoke(t, d, "update", map[string]int{"x": 9})
	if got := invoke(t, d, "contains", "x"); got != true {
		t.Fatalf("contains = %v", got)
	}
	keys := invoke(t, d, "keys").([]string)
	if len(keys) != 3 || keys[0] != "b" || keys[1] != "c" || keys[2] != "x" {
		t.Fatalf("keys = %v", keys)
	}
	if got := invoke(t, d, "repr"); got != `{"b":[1,2],"c":3,"x":9}` {
		t.Fatalf("repr = %v", got)
	}
	invoke(t, d, "clear")
	if d.Len() != 0 {
		t.Fatalf("len after clear = %d", d.Len())
	}
}

func TestNamespaceOperations(t *testing.T) {
	ns, err := primitive.NewNamespace(nil)
	if err != nil {
		t.Fatalf("NewNamespace: %v", err)
	}
	invoke(t, ns, "setattr", "b", "x")
	invoke(t, ns, "setattr", "a", 1)
	if got := invoke(t, ns, "repr"); got != `Namespace(a=1, b="x")` {
		t.Fatalf("repr = %v", got)
	}
	if _, err := ns.Invoke(context.Background(), "getattr", mustArgs(t, "zz")); !errors.Is(err, primitive.ErrAttrNotFound) {
		t.Fatalf("getattr missing = %v", err)
	}
	invoke(t, ns, "delattr", "a")
	if _, err := ns.Invoke(context.Background(), "delattr", mustArgs(t, "a")); !errors.Is(err, primitive.ErrAttrNotFound) {
		t.Fatalf("delattr missing = %v", err)
	}
}

func TestCellAndUnknownOps(t *testing.T) {
	cell, err := primitive.NewCell(nil)
	if err != nil {
		t.Fatalf("NewCell: %v", err)
	}
	if got := invoke(t, cell, "repr"); got != "null" {
		t.Fatalf("repr empty cell = %v", got)
	}
	invoke(t, cell, "set", map[string]bool{"ok": true})
	if string(cell.Load()) != `{"ok":true}` {
		t.Fatalf("load = %s", cell.Load())
	}
	if _, err := cell.Invoke(context.Background(), "explode", nil); !errors.Is(err, primitive.ErrUnknownOp) {
		t.Fatalf("unknown op = %v", err)
	}
	if _, err := cell.Invoke(context.Background(), "set", nil); !errors.Is(err, primitive.ErrBadArgs) {
		t.Fatalf("missing arg = %v", err)
	}
}

func TestErrorCodesRoundTrip(t *testing.T) {
	for _, sentinel := range []error{
		primitive.ErrKeyNotFound, primitive.ErrAttrNotFound, primitive.ErrEmpty, primitive.ErrFull,
		primitive.ErrNotLocked, primitive.ErrUnknownOp, primitive.ErrBadArgs, primitive.ErrClosed,
	} {
		code := primitive.Code(sentinel)
		if code == "" {
			t.Fatalf("no code for %v", sentinel)
		}
		if primitive.FromCode(code) != sentinel {
			t.Fatalf("code %q did not map back to %v", code, sentinel)
		}
	}
	if primitive.Code(errors.New("other")) != "" {
		t.Fatal("unexpected code for foreign error")
	}
}

func mustArgs(t *testing.T, values ...any) primitive.Args {
	t.Helper()
	args, err := primitive.EncodeArgs(values...)
	if err != nil {
		t.Fatalf("EncodeArgs: %v", err)
	}
	return args
}

func TestTimeoutArgument(t *testing.T) {
	cases := []struct {
		value any
		want  time.Duration
	}{
		{nil, primitive.NoTimeout},
		{-1, primitive.NoTimeout},
		{0.25, 250 * time.Millisecond},
		{1e300, time.Duration(math.MaxInt64)},
		{float64(math.MaxInt64), time.Duration(math.MaxInt64)},
	}
	for _, tc := range cases {
		args, err := primitive.EncodeArgs(tc.value)
		if err != nil {
			t.Fatalf("EncodeArgs(%v): %v", tc.value, err)
		}
		got, err := args.Timeout(0)
		if err != nil {
			t.Fatalf("Timeout(%v): %v", tc.value, err)
		}
		if got != tc.want {
			t.Errorf("Timeout(%v) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
