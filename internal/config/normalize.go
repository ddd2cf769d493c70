package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	if err := c.normalizePeer(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeMetrics()
	c.normalizeObjects()
	return nil
}

func (c *Config) normalizeServer() error {
	var err error
	c.Server.BindHost = strings.TrimSpace(c.Server.BindHost)
	c.Server.AdvertiseHost = strings.TrimSpace(c.Server.AdvertiseHost)
	if value, ok := os.LookupEnv("REMOTESYNC_AUTH_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Server.AuthKey = strings.TrimSpace(value)
	}
	c.Server.AuthKey = strings.TrimSpace(c.Server.AuthKey)
	if strings.TrimSpace(c.Server.DescriptorPath) == "" {
		c.Server.DescriptorPath = Default().Server.DescriptorPath
	}
	if c.Server.DescriptorPath, err = expandPath(c.Server.DescriptorPath); err != nil {
		return fmt.Errorf("server.descriptor_path: %w", err)
	}
	if c.Server.PIDFile, err = expandPath(strings.TrimSpace(c.Server.PIDFile)); err != nil {
		return fmt.Errorf("server.pid_file: %w", err)
	}
	if c.Server.HandshakeTimeout == 0 {
		c.Server.HandshakeTimeout = defaultHandshakeTimeout
	}
	return nil
}

func (c *Config) normalizePeer() error {
	var err error
	c.Peer.DescriptorPath = strings.TrimSpace(c.Peer.DescriptorPath)
	if c.Peer.DescriptorPath == "" {
		if value, ok := os.LookupEnv("REMOTESYNC_DESCRIPTOR"); ok {
			c.Peer.DescriptorPath = strings.TrimSpace(value)
		}
	}
	if c.Peer.DescriptorPath == "" {
		c.Peer.DescriptorPath = c.Server.DescriptorPath
	}
	if c.Peer.DescriptorPath, err = expandPath(c.Peer.DescriptorPath); err != nil {
		return fmt.Errorf("peer.descriptor_path: %w", err)
	}
	if c.Peer.DialTimeout == 0 {
		c.Peer.DialTimeout = defaultDialTimeout
	}
	if c.Peer.WaitTimeout == 0 {
		c.Peer.WaitTimeout = defaultWaitTimeout
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLedger() error {
	var err error
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = Default().Ledger.Path
	}
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetrics() {
	if c.Metrics.IntervalSeconds <= 0 {
		c.Metrics.IntervalSeconds = defaultMetricsInterval
	}
	if c.Metrics.RetainMinutes <= 0 {
		c.Metrics.RetainMinutes = defaultMetricsRetain
	}
}

func (c *Config) normalizeObjects() {
	for i := range c.Objects {
		obj := &c.Objects[i]
		obj.Name = strings.TrimSpace(obj.Name)
		obj.Kind = strings.ToLower(strings.TrimSpace(obj.Kind))
		obj.Initial = strings.TrimSpace(obj.Initial)
		if len(obj.Exposed) == 0 {
			continue
		}
		ops := make([]string, 0, len(obj.Exposed))
		seen := make(map[string]struct{}, len(obj.Exposed))
		for _, op := range obj.Exposed {
			normalized := strings.ToLower(strings.TrimSpace(op))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			ops = append(ops, normalized)
		}
		obj.Exposed = ops
	}
}
