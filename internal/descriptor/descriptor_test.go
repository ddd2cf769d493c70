package descriptor_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"remotesync/internal/descriptor"
	"remotesync/internal/registry"
)

func sampleDescriptor() descriptor.Descriptor {
	return descriptor.Descriptor{
		Version:   descriptor.CurrentVersion,
		SessionID: "5f0c6f2e-3d0b-4a55-9c11-2c9a0d7f1e42",
		Connection: descriptor.Connection{
			Host:    "192.0.2.10",
			Port:    50123,
			AuthKey: []byte{0x00, 0x01, 0xfe, 0xff, 'k', 'e', 'y'},
		},
		Objects: []descriptor.Object{
			{Name: "lock", Kind: registry.KindLock},
			{Name: "jobs", Kind: registry.KindQueue},
			{Name: "ready", Kind: registry.KindEvent},
			{Name: "config", Kind: registry.KindDict, Exposed: []string{"get", "keys"}},
			{Name: "blob"},
		},
		ContextWrap: []descriptor.ContextWrap{
			{Name: "lock", Acquire: "acquire", Release: "release"},
		},
		Formats: []descriptor.FormatHint{
			{Name: "jobs", Format: registry.FormatQueue},
			{Name: "ready", Format: registry.FormatEvent},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sampleDescriptor()
	data, err := descriptor.Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := descriptor.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch\n got: %#v\nwant: %#v", got, want)
	}
}

func TestRoundTripWithoutObjects(t *testing.T) {
	want := sampleDescriptor()
	want.Objects = []descriptor.Object{}
	want.ContextWrap = nil
	want.Formats = []descriptor.FormatHint{}

	data, err := descriptor.Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := descriptor.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Objects) != 0 || len(got.ContextWrap) != 0 || len(got.Formats) != 0 {
		t.Fatalf("expected empty tables, got %#v", got)
	}
	if got.Connection.Address() != "192.0.2.10:50123" {
		t.Fatalf("unexpected address %q", got.Connection.Address())
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	cases := map[string]func(*descriptor.Descriptor){
		"duplicate name": func(d *descriptor.Descriptor) {
			d.Objects = append(d.Objects, descriptor.Object{Name: "jobs"})
		},
		"empty name": func(d *descriptor.Descriptor) {
			d.Objects = append(d.Objects, descriptor.Object{})
		},
		"missing key": func(d *descriptor.Descriptor) {
			d.Connection.AuthKey = nil
		},
		"bad port": func(d *descriptor.Descriptor) {
			d.Connection.Port = 70000
		},
		"dangling wrap": func(d *descriptor.Descriptor) {
			d.ContextWrap = append(d.ContextWrap, descriptor.ContextWrap{Name: "ghost", Acquire: "a", Release: "r"})
		},
		"unknown format": func(d *descriptor.Descriptor) {
			d.Formats = append(d.Formats, descriptor.FormatHint{Name: "blob", Format: "table"})
		},
		"version": func(d *descriptor.Descriptor) {
			d.Version = 99
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := sampleDescriptor()
			mutate(&d)
			if _, err := descriptor.Encode(d); !errors.Is(err, descriptor.ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := descriptor.Decode([]byte("not = [valid")); err == nil {
		t.Fatal("expected parse error")
	}
	bad := "version = 1\nsession_id = \"x\"\n[connection]\nhost = \"h\"\nport = 1\nauth_key = \"***\"\n"
	if _, err := descriptor.Decode([]byte(bad)); !errors.Is(err, descriptor.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for bad key, got %v", err)
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.toml")
	want := sampleDescriptor()
	if err := descriptor.Write(path, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("descriptor permissions = %o, want 600", perm)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if !strings.Contains(string(data), "[connection]") {
		t.Fatalf("expected TOML connection table, got:\n%s", data)
	}

	got, err := descriptor.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("file round trip mismatch\n got: %#v\nwant: %#v", got, want)
	}
	if got.Format("jobs") != registry.FormatQueue || got.Format("lock") != registry.FormatNone {
		t.Fatal("unexpected format lookup")
	}
	if wrap, ok := got.Wrap("lock"); !ok || wrap.Acquire != "acquire" {
		t.Fatalf("unexpected wrap lookup: %+v %v", wrap, ok)
	}
	if names := got.Names(); len(names) != 5 || names[0] != "lock" || names[4] != "blob" {
		t.Fatalf("unexpected names %v", names)
	}

	if err := descriptor.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := descriptor.Read(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist after remove, got %v", err)
	}
}

func TestReadMissingLeavesNoLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	for i := 0; i < 3; i++ {
		if _, err := descriptor.Read(path); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected not-exist, got %v", err)
		}
	}
	if _, err := os.Stat(descriptor.LockPath(path)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("reading a missing descriptor created %s (stat err=%v)", descriptor.LockPath(path), err)
	}
}
