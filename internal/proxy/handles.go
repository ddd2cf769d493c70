package proxy

import (
	"encoding/json"
	"time"

	"remotesync/internal/primitive"
)

// Lock forwards to a shared lock.
type Lock struct{ base }

// Acquire blocks until the lock is held.
func (l *Lock) Acquire() error {
	return l.call("acquire", nil)
}

// TryAcquire takes the lock only if it is free.
func (l *Lock) TryAcquire() (bool, error) {
	var ok bool
	err := l.call("acquire", &ok, false)
	return ok, err
}

// AcquireTimeout waits at most timeout for the lock.
func (l *Lock) AcquireTimeout(timeout time.Duration) (bool, error) {
	var ok bool
	err := l.call("acquire", &ok, true, primitive.Seconds(timeout))
	return ok, err
}

func (l *Lock) Release() error {
	return l.call("release", nil)
}

func (l *Lock) Locked() (bool, error) {
	var locked bool
	err := l.call("locked", &locked)
	return locked, err
}

// Event forwards to a shared event.
type Event struct{ base }

func (e *Event) Set() error   { return e.call("set", nil) }
func (e *Event) Clear() error { return e.call("clear", nil) }

func (e *Event) IsSet() (bool, error) {
	var set bool
	err := e.call("is_set", &set)
	return set, err
}

// Wait blocks until the event is set.
func (e *Event) Wait() error {
	return e.call("wait", nil)
}

// WaitTimeout reports whether the event was set before timeout elapsed.
func (e *Event) WaitTimeout(timeout time.Duration) (bool, error) {
	var set bool
	err := e.call("wait", &set, primitive.Seconds(timeout))
	return set, err
}

// Queue forwards to a shared FIFO queue. Items are JSON-encoded.
type Queue struct{ base }

// Put blocks while the queue is full.
func (q *Queue) Put(item any) error {
	return q.call("put", nil, item)
}

// PutTimeout fails with primitive.ErrFull if no slot frees up in time.
func (q *Queue) PutTimeout(item any, timeout time.Duration) error {
	return q.call("put", nil, item, true, primitive.Seconds(timeout))
}

// PutNowait fails with primitive.ErrFull when the queue is full.
func (q *Queue) PutNowait(item any) error {
	return q.call("put", nil, item, false)
}

// Get blocks until an item is available and decodes it into out.
func (q *Queue) Get(out any) error {
	return q.call("get", out)
}

// GetTimeout fails with primitive.ErrEmpty if nothing arrives in time.
func (q *Queue) GetTimeout(out any, timeout time.Duration) error {
	return q.call("get", out, true, primitive.Seconds(timeout))
}

// GetNowait fails with primitive.ErrEmpty when the queue is empty.
func (q *Queue) GetNowait(out any) error {
	return q.call("get", out, false)
}

func (q *Queue) Size() (int, error) {
	var n int
	err := q.call("qsize", &n)
	return n, err
}

func (q *Queue) Empty() (bool, error) {
	var empty bool
	err := q.call("empty", &empty)
	return empty, err
}

func (q *Queue) Full() (bool, error) {
	var full bool
	err := q.call("full", &full)
	return full, err
}

func (q *Queue) MaxSize() (int, error) {
	var n int
	err := q.call("maxsize", &n)
	return n, err
}

// Cell forwards to a shared scalar cell.
type Cell struct{ base }

func (c *Cell) Load(out any) error   { return c.call("get", out) }
func (c *Cell) Store(value any) error { return c.call("set", nil, value) }

// Dict forwards to a shared string-keyed map. Each method is one round trip;
// read-modify-write sequences need an external lock to be atomic.
type Dict struct{ base }

// Get fails with primitive.ErrKeyNotFound for missing keys.
func (d *Dict) Get(key string, out any) error {
	return d.call("get", out, key)
}

// Lookup decodes the value under key, or def when key is missing.
func (d *Dict) Lookup(key string, def any, out any) error {
	return d.call("lookup", out, key, def)
}

func (d *Dict) Set(key string, value any) error {
	return d.call("set", nil, key, value)
}

func (d *Dict) Delete(key string) error {
	return d.call("delete", nil, key)
}

func (d *Dict) Contains(key string) (bool, error) {
	var ok bool
	err := d.call("contains", &ok, key)
	return ok, err
}

func (d *Dict) Len() (int, error) {
	var n int
	err := d.call("len", &n)
	return n, err
}

// Keys lists keys in sorted order.
func (d *Dict) Keys() ([]string, error) {
	var keys []string
	err := d.call("keys", &keys)
	return keys, err
}

func (d *Dict) Items() (map[string]json.RawMessage, error) {
	var items map[string]json.RawMessage
	err := d.call("items", &items)
	return items, err
}

// Pop removes key and decodes its value into out.
func (d *Dict) Pop(key string, out any) error {
	return d.call("pop", out, key)
}

// SetDefault stores def under key unless present and decodes the resulting
// value into out.
func (d *Dict) SetDefault(key string, def any, out any) error {
	return d.call("setdefault", out, key, def)
}

// Update merges entries, which must encode as a JSON object.
func (d *Dict) Update(entries any) error {
	return d.call("update", nil, entries)
}

func (d *Dict) Clear() error {
	return d.call("clear", nil)
}

// Namespace forwards to a shared attribute bag.
type Namespace struct{ base }

func (n *Namespace) GetAttr(name string, out any) error {
	return n.call("getattr", out, name)
}

func (n *Namespace) SetAttr(name string, value any) error {
	return n.call("setattr", nil, name, value)
}

func (n *Namespace) DelAttr(name string) error {
	return n.call("delattr", nil, name)
}

func (n *Namespace) Attrs() (map[string]json.RawMessage, error) {
	var attrs map[string]json.RawMessage
	err := n.call("attrs", &attrs)
	return attrs, err
}
