package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"remotesync/internal/proxy"
	"remotesync/internal/registry"
)

// Source is anything that binds handles by name. *session.Session satisfies
// it on either role.
type Source interface {
	Names() []string
	Get(name string) (proxy.Handle, error)
	Format(name string) registry.Format
}

// Entry is the observed state of one shared object.
type Entry struct {
	Name   string
	Kind   registry.Kind
	Format registry.Format
	Repr   string

	// Queue detail, set when Format is FormatQueue.
	Size  int
	Empty bool
	Full  bool

	// Event detail, set when Format is FormatEvent.
	IsSet bool
}

type queueState interface {
	Size() (int, error)
	Empty() (bool, error)
	Full() (bool, error)
}

type eventState interface {
	IsSet() (bool, error)
}

// Collect reads every object in registration order. Only read operations are
// issued, so collecting never changes what it observes.
func Collect(src Source) ([]Entry, error) {
	names := src.Names()
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		handle, err := src.Get(name)
		if err != nil {
			return nil, err
		}
		if scoped, ok := handle.(*proxy.Scoped); ok {
			handle = scoped.Inner()
		}
		entry := Entry{Name: name, Kind: handle.Kind(), Format: src.Format(name)}
		if entry.Repr, err = handle.Repr(); err != nil {
			return nil, fmt.Errorf("inspect %s: %w", name, err)
		}
		switch entry.Format {
		case registry.FormatQueue:
			if q, ok := handle.(queueState); ok {
				if err := readQueue(q, &entry); err != nil {
					return nil, fmt.Errorf("inspect %s: %w", name, err)
				}
			}
		case registry.FormatEvent:
			if e, ok := handle.(eventState); ok {
				if entry.IsSet, err = e.IsSet(); err != nil {
					return nil, fmt.Errorf("inspect %s: %w", name, err)
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func readQueue(q queueState, entry *Entry) error {
	var err error
	if entry.Empty, err = q.Empty(); err != nil {
		return err
	}
	if entry.Empty {
		return nil
	}
	if entry.Size, err = q.Size(); err != nil {
		return err
	}
	entry.Full, err = q.Full()
	return err
}

// Detail is the type-specific suffix of an entry: "E" for an empty queue,
// the size plus "F" when full for others, and "is_set=<bool>" for events.
func (e Entry) Detail() string {
	switch e.Format {
	case registry.FormatQueue:
		if e.Empty {
			return "E"
		}
		detail := strconv.Itoa(e.Size)
		if e.Full {
			detail += "F"
		}
		return detail
	case registry.FormatEvent:
		return "is_set=" + strconv.FormatBool(e.IsSet)
	}
	return ""
}

// Line renders "<name>: <repr>" followed by the detail when there is one.
func (e Entry) Line() string {
	line := e.Name + ": " + e.Repr
	if detail := e.Detail(); detail != "" {
		line += " " + detail
	}
	return line
}

// Render produces one line per shared object.
func Render(src Source) (string, error) {
	entries, err := Collect(src)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.Line())
	}
	return strings.Join(lines, "\n"), nil
}
