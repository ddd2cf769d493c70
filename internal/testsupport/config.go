package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"remotesync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp paths per test and a
// loopback-only server. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.BindHost = "127.0.0.1"
	cfgVal.Server.AdvertiseHost = "127.0.0.1"
	cfgVal.Server.DescriptorPath = filepath.Join(base, "state", "session.toml")
	cfgVal.Server.PIDFile = filepath.Join(base, "state", "host.pid")
	cfgVal.Peer.DescriptorPath = cfgVal.Server.DescriptorPath
	cfgVal.Ledger.Path = filepath.Join(base, "state", "ledger.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithObjects replaces the declared objects.
func WithObjects(objects ...config.Object) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Objects = objects
	}
}

// WithAuthKey sets a fixed shared key.
func WithAuthKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.AuthKey = key
	}
}

// WithoutLedger disables the session ledger.
func WithoutLedger() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Server.DescriptorPath))
}

// WriteConfig encodes cfg as TOML under the config's base directory and
// returns the file path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "remotesync.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
