package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"remotesync/internal/registry"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	return c.validateObjects()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.DescriptorPath) == "" {
		return errors.New("server.descriptor_path must be set")
	}
	if strings.ContainsAny(c.Server.AdvertiseHost, " /") {
		return fmt.Errorf("server.advertise_host %q is not a host name or address", c.Server.AdvertiseHost)
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"server.handshake_timeout": c.Server.HandshakeTimeout,
		"peer.dial_timeout":        c.Peer.DialTimeout,
		"peer.wait_timeout":        c.Peer.WaitTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func (c *Config) validateLedger() error {
	if c.Ledger.Enabled && strings.TrimSpace(c.Ledger.Path) == "" {
		return errors.New("ledger.path must be set when ledger.enabled is true")
	}
	return nil
}

func (c *Config) validateObjects() error {
	seen := make(map[string]struct{}, len(c.Objects))
	for i, obj := range c.Objects {
		label := fmt.Sprintf("objects[%d]", i)
		if obj.Name == "" {
			return fmt.Errorf("%s.name must be set", label)
		}
		label = fmt.Sprintf("objects[%d] (%s)", i, obj.Name)
		if _, dup := seen[obj.Name]; dup {
			return fmt.Errorf("%s: duplicate object name", label)
		}
		seen[obj.Name] = struct{}{}

		kind, err := registry.ParseKind(obj.Kind)
		if err != nil {
			return fmt.Errorf("%s.kind: %w", label, err)
		}
		if kind == registry.KindOpaque {
			return fmt.Errorf("%s.kind must name a concrete kind (%s)", label, kindList())
		}
		if obj.Capacity < 0 {
			return fmt.Errorf("%s.capacity must be >= 0", label)
		}
		if obj.Capacity > 0 && kind != registry.KindQueue {
			return fmt.Errorf("%s.capacity only applies to queues", label)
		}
		if err := validateInitial(kind, obj.InitialValue()); err != nil {
			return fmt.Errorf("%s.initial: %w", label, err)
		}
		for _, op := range obj.Exposed {
			if !registry.Supports(kind, op) {
				return fmt.Errorf("%s.exposed: %s does not support %q", label, kind, op)
			}
		}
		if spec, ok := registry.Lookup(kind); ok && spec.Wrap != nil && len(obj.Exposed) > 0 {
			for _, op := range []string{spec.Wrap.Acquire, spec.Wrap.Release} {
				if !slices.Contains(obj.Exposed, op) {
					return fmt.Errorf("%s.exposed: %s must include %q", label, kind, op)
				}
			}
		}
	}
	return nil
}

func validateInitial(kind registry.Kind, raw json.RawMessage) error {
	if raw == nil {
		return nil
	}
	switch kind {
	case registry.KindCell:
		if !json.Valid(raw) {
			return errors.New("must be valid JSON")
		}
	case registry.KindDict, registry.KindNamespace:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return errors.New("must be a JSON object")
		}
	default:
		return fmt.Errorf("%s objects take no initial value", kind)
	}
	return nil
}

func kindList() string {
	kinds := registry.Kinds()
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, string(kind))
	}
	return strings.Join(names, ", ")
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
