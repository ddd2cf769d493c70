package descriptor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"remotesync/internal/registry"
)

// CurrentVersion is the descriptor layout written by this package.
const CurrentVersion = 1

// ErrInvalid reports a descriptor that decoded but is not usable.
var ErrInvalid = errors.New("invalid descriptor")

// Descriptor is everything a peer needs to reach a host and bind its objects.
type Descriptor struct {
	Version     int
	SessionID   string
	Connection  Connection
	Objects     []Object
	ContextWrap []ContextWrap
	Formats     []FormatHint
}

// Connection locates and authenticates against a running host.
type Connection struct {
	Host    string
	Port    int
	AuthKey []byte
}

// Address joins host and port for dialing.
func (c Connection) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Object describes one shared object. Kind is empty for opaque objects and
// Exposed is nil when the kind's full operation set is served.
type Object struct {
	Name    string        `toml:"name"`
	Kind    registry.Kind `toml:"kind,omitempty"`
	Exposed []string      `toml:"exposed,omitempty"`
}

// ContextWrap declares that a name is used through scoped acquisition.
type ContextWrap struct {
	Name    string `toml:"name"`
	Acquire string `toml:"acquire"`
	Release string `toml:"release"`
}

// FormatHint selects type-specific rendering for a name.
type FormatHint struct {
	Name   string          `toml:"name"`
	Format registry.Format `toml:"format"`
}

type fileConnection struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	AuthKey string `toml:"auth_key"`
}

type fileLayout struct {
	Version     int            `toml:"version"`
	SessionID   string         `toml:"session_id"`
	Connection  fileConnection `toml:"connection"`
	Objects     []Object       `toml:"objects,omitempty"`
	ContextWrap []ContextWrap  `toml:"context_wrap,omitempty"`
	Formats     []FormatHint   `toml:"formats,omitempty"`
}

// Encode serializes d as TOML after validating it.
func Encode(d Descriptor) ([]byte, error) {
	d = canonical(d)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	layout := fileLayout{
		Version:   d.Version,
		SessionID: d.SessionID,
		Connection: fileConnection{
			Host:    d.Connection.Host,
			Port:    d.Connection.Port,
			AuthKey: base64.StdEncoding.EncodeToString(d.Connection.AuthKey),
		},
		Objects:     d.Objects,
		ContextWrap: d.ContextWrap,
		Formats:     d.Formats,
	}
	data, err := toml.Marshal(layout)
	if err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	return data, nil
}

// Decode parses and validates TOML produced by Encode.
func Decode(data []byte) (Descriptor, error) {
	var layout fileLayout
	if err := toml.Unmarshal(data, &layout); err != nil {
		return Descriptor{}, fmt.Errorf("decode descriptor: %w", err)
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(layout.Connection.AuthKey))
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: connection.auth_key: %v", ErrInvalid, err)
	}
	d := canonical(Descriptor{
		Version:   layout.Version,
		SessionID: layout.SessionID,
		Connection: Connection{
			Host:    layout.Connection.Host,
			Port:    layout.Connection.Port,
			AuthKey: key,
		},
		Objects:     layout.Objects,
		ContextWrap: layout.ContextWrap,
		Formats:     layout.Formats,
	})
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Validate checks the structural invariants peers rely on.
func (d Descriptor) Validate() error {
	if d.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalid, d.Version)
	}
	if strings.TrimSpace(d.Connection.Host) == "" {
		return fmt.Errorf("%w: connection.host is empty", ErrInvalid)
	}
	if d.Connection.Port <= 0 || d.Connection.Port > 65535 {
		return fmt.Errorf("%w: connection.port %d out of range", ErrInvalid, d.Connection.Port)
	}
	if len(d.Connection.AuthKey) == 0 {
		return fmt.Errorf("%w: connection.auth_key is empty", ErrInvalid)
	}
	names := make(map[string]struct{}, len(d.Objects))
	for _, obj := range d.Objects {
		if obj.Name == "" {
			return fmt.Errorf("%w: object with empty name", ErrInvalid)
		}
		if _, dup := names[obj.Name]; dup {
			return fmt.Errorf("%w: duplicate object %q", ErrInvalid, obj.Name)
		}
		names[obj.Name] = struct{}{}
	}
	for _, wrap := range d.ContextWrap {
		if _, ok := names[wrap.Name]; !ok {
			return fmt.Errorf("%w: context wrap for unknown object %q", ErrInvalid, wrap.Name)
		}
		if wrap.Acquire == "" || wrap.Release == "" {
			return fmt.Errorf("%w: context wrap for %q is incomplete", ErrInvalid, wrap.Name)
		}
	}
	for _, hint := range d.Formats {
		if _, ok := names[hint.Name]; !ok {
			return fmt.Errorf("%w: format hint for unknown object %q", ErrInvalid, hint.Name)
		}
		if hint.Format != registry.FormatQueue && hint.Format != registry.FormatEvent {
			return fmt.Errorf("%w: format hint %q for %q", ErrInvalid, hint.Format, hint.Name)
		}
	}
	return nil
}

// Object returns the entry registered under name.
func (d Descriptor) Object(name string) (Object, bool) {
	for _, obj := range d.Objects {
		if obj.Name == name {
			return obj, true
		}
	}
	return Object{}, false
}

// Wrap returns the scoped-acquisition binding for name, if any.
func (d Descriptor) Wrap(name string) (ContextWrap, bool) {
	for _, wrap := range d.ContextWrap {
		if wrap.Name == name {
			return wrap, true
		}
	}
	return ContextWrap{}, false
}

// Format returns the inspector hint for name.
func (d Descriptor) Format(name string) registry.Format {
	for _, hint := range d.Formats {
		if hint.Name == name {
			return hint.Format
		}
	}
	return registry.FormatNone
}

// Names lists object names in registration order.
func (d Descriptor) Names() []string {
	names := make([]string, 0, len(d.Objects))
	for _, obj := range d.Objects {
		names = append(names, obj.Name)
	}
	return names
}

// canonical folds empty slices to nil so encoded and decoded forms compare
// equal.
func canonical(d Descriptor) Descriptor {
	if len(d.Objects) == 0 {
		d.Objects = nil
	} else {
		objects := make([]Object, len(d.Objects))
		for i, obj := range d.Objects {
			if len(obj.Exposed) == 0 {
				obj.Exposed = nil
			}
			objects[i] = obj
		}
		d.Objects = objects
	}
	if len(d.ContextWrap) == 0 {
		d.ContextWrap = nil
	}
	if len(d.Formats) == 0 {
		d.Formats = nil
	}
	if len(d.Connection.AuthKey) == 0 {
		d.Connection.AuthKey = nil
	}
	return d
}
