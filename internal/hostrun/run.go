package hostrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	metrics "github.com/hashicorp/go-metrics"

	"remotesync/internal/config"
	"remotesync/internal/descriptor"
	"remotesync/internal/ledger"
	"remotesync/internal/logging"
	"remotesync/internal/session"
)

// Options configures host process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel    string
	Development bool
	// Ready, when set, is called once the host is serving.
	Ready func(*session.Session)
	// Logger replaces the logger built from the config.
	Logger *slog.Logger
}

// Run starts a host session for the configured objects and serves until ctx
// is cancelled or the process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sessionID := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = newLogger(cfg, opts, sessionID)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	objects, err := BuildObjects(cfg.Objects)
	if err != nil {
		return err
	}

	if err := writePIDFile(cfg.Server.PIDFile); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	if cfg.Server.PIDFile != "" {
		defer os.Remove(cfg.Server.PIDFile)
	}

	store := openLedger(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	var sink metrics.MetricSink
	if cfg.Metrics.Enabled {
		inmem := metrics.NewInmemSink(cfg.MetricsInterval(), cfg.MetricsRetain())
		dump := metrics.DefaultInmemSignal(inmem)
		defer dump.Stop()
		sink = inmem
		logger.Info("in-memory metrics enabled; send SIGUSR1 to dump",
			logging.String(logging.FieldEventType, "metrics_enabled"),
			logging.Duration("interval", cfg.MetricsInterval()))
	}

	host, err := session.NewHost(signalCtx, session.HostOptions{
		DescriptorPath:   cfg.Server.DescriptorPath,
		BindHost:         cfg.Server.BindHost,
		AdvertiseHost:    cfg.Server.AdvertiseHost,
		Port:             cfg.Server.Port,
		AuthKey:          cfg.AuthKeyBytes(),
		SessionID:        sessionID,
		HandshakeTimeout: cfg.HandshakeTimeout(),
		DialTimeout:      cfg.DialTimeout(),
		Logger:           logger,
		Metrics:          sink,
		Ledger:           store,
	}, objects)
	if err != nil {
		logger.Error("host session failed to start", logging.Error(err))
		return err
	}
	defer func() {
		if err := descriptor.Remove(cfg.Server.DescriptorPath); err != nil {
			logging.WarnWithContext(logger, "descriptor not removed", "descriptor_cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "peers will see a connection error instead of a missing descriptor"),
				logging.String(logging.FieldErrorHint, "delete the descriptor file by hand"))
		}
	}()
	defer host.Close()

	if opts.Ready != nil {
		opts.Ready(host)
	}

	<-signalCtx.Done()
	logger.Info("remotesync host shutting down")
	return nil
}

func newLogger(cfg *config.Config, opts Options, sessionID string) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	outputs := []string{"stderr"}
	if cfg.Logging.File != "" {
		outputs = append(outputs, cfg.Logging.File)
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Development: opts.Development,
		SessionID:   sessionID,
	})
}

func openLedger(cfg *config.Config, logger *slog.Logger) *ledger.Store {
	if !cfg.Ledger.Enabled {
		return nil
	}
	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		logging.WarnWithContext(logger, "session ledger unavailable", "ledger_open_failed",
			logging.Error(err),
			logging.String("path", cfg.Ledger.Path),
			logging.String(logging.FieldImpact, "this host run will not appear in `remotesync sessions`"),
			logging.String(logging.FieldErrorHint, "check ledger.path or set ledger.enabled = false"))
		return nil
	}
	return store
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
