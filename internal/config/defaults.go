package config

import "path/filepath"

const (
	defaultConfigPath       = "~/.config/remotesync/config.toml"
	defaultHandshakeTimeout = 5
	defaultDialTimeout      = 5
	defaultWaitTimeout      = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultMetricsInterval  = 10
	defaultMetricsRetain    = 5
	defaultLedgerEnabled    = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	state := defaultStateDir()
	return Config{
		Server: Server{
			DescriptorPath:   filepath.Join(state, "session.toml"),
			HandshakeTimeout: defaultHandshakeTimeout,
			PIDFile:          filepath.Join(state, "host.pid"),
		},
		Peer: Peer{
			DialTimeout: defaultDialTimeout,
			WaitTimeout: defaultWaitTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Ledger: Ledger{
			Enabled: defaultLedgerEnabled,
			Path:    filepath.Join(state, "ledger.db"),
		},
		Metrics: Metrics{
			IntervalSeconds: defaultMetricsInterval,
			RetainMinutes:   defaultMetricsRetain,
		},
	}
}
