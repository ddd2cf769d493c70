package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains host-side settings for `remotesync host`.
type Server struct {
	BindHost         string `toml:"bind_host"`
	AdvertiseHost    string `toml:"advertise_host"`
	Port             int    `toml:"port"`
	AuthKey          string `toml:"auth_key"`
	DescriptorPath   string `toml:"descriptor_path"`
	HandshakeTimeout int    `toml:"handshake_timeout"`
	PIDFile          string `toml:"pid_file"`
}

// Peer contains settings for commands that attach to a running host.
type Peer struct {
	DescriptorPath string `toml:"descriptor_path"`
	DialTimeout    int    `toml:"dial_timeout"`
	WaitTimeout    int    `toml:"wait_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Ledger contains configuration for the host session history database.
type Ledger struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Metrics contains configuration for the in-memory broker metrics sink.
type Metrics struct {
	Enabled         bool `toml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds"`
	RetainMinutes   int  `toml:"retain_minutes"`
}

// Object declares one shared object the CLI host constructs at startup.
type Object struct {
	Name     string   `toml:"name"`
	Kind     string   `toml:"kind"`
	Capacity int      `toml:"capacity"`
	Initial  string   `toml:"initial"`
	Exposed  []string `toml:"exposed"`
}

// InitialValue returns the declared initial value as raw JSON, or nil when
// none was given.
func (o Object) InitialValue() json.RawMessage {
	trimmed := strings.TrimSpace(o.Initial)
	if trimmed == "" {
		return nil
	}
	return json.RawMessage(trimmed)
}

// Config encapsulates all configuration values for remotesync.
//
// Configuration sections:
//   - Server: bind/advertise addresses, auth key, descriptor location
//   - Peer: descriptor lookup and dial behaviour for attaching commands
//   - Logging: log format, level, and optional file
//   - Ledger: SQLite history of host sessions
//   - Metrics: in-memory broker metrics
//   - Objects: the shared objects a CLI host publishes
type Config struct {
	Server  Server   `toml:"server"`
	Peer    Peer     `toml:"peer"`
	Logging Logging  `toml:"logging"`
	Ledger  Ledger   `toml:"ledger"`
	Metrics Metrics  `toml:"metrics"`
	Objects []Object `toml:"objects"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("remotesync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// AuthKeyBytes returns the configured shared key, or nil when the host
// should generate one.
func (c *Config) AuthKeyBytes() []byte {
	if c.Server.AuthKey == "" {
		return nil
	}
	return []byte(c.Server.AuthKey)
}

// HandshakeTimeout returns the server handshake deadline.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Server.HandshakeTimeout) * time.Second
}

// DialTimeout returns the peer connect deadline.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.Peer.DialTimeout) * time.Second
}

// WaitTimeout bounds how long attaching commands retry with --wait.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.Peer.WaitTimeout) * time.Second
}

// MetricsInterval returns the aggregation interval of the in-memory sink.
func (c *Config) MetricsInterval() time.Duration {
	return time.Duration(c.Metrics.IntervalSeconds) * time.Second
}

// MetricsRetain returns how long the in-memory sink keeps intervals.
func (c *Config) MetricsRetain() time.Duration {
	return time.Duration(c.Metrics.RetainMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "remotesync")
	}
	return "~/.local/state/remotesync"
}

// Sample returns the annotated sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
