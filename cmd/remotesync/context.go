package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"remotesync/internal/config"
	"remotesync/internal/ipc"
	"remotesync/internal/logging"
	"remotesync/internal/session"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.logLevelFlag)
}

// logger builds the stderr logger used by attaching commands. Peer-side
// chatter is quiet unless --log-level asks for more.
func (c *commandContext) logger(cfg *config.Config) *slog.Logger {
	level := c.logLevel()
	if level == "" {
		level = "warn"
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withPeer attaches to the configured host, runs fn, and detaches.
func (c *commandContext) withPeer(cmd *cobra.Command, wait bool, fn func(*session.Session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	peer, err := c.openPeer(cmd.Context(), cfg, wait)
	if err != nil {
		return err
	}
	defer peer.Close()
	return fn(peer)
}

func (c *commandContext) openPeer(ctx context.Context, cfg *config.Config, wait bool) (*session.Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := session.PeerOptions{
		DialTimeout: cfg.DialTimeout(),
		Logger:      c.logger(cfg),
	}
	path := cfg.Peer.DescriptorPath
	if !wait {
		return session.NewPeer(ctx, path, opts)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = cfg.WaitTimeout()

	var peer *session.Session
	attempt := func() error {
		s, err := session.NewPeer(ctx, path, opts)
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		peer = s
		return nil
	}
	if err := backoff.Retry(attempt, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return peer, nil
}

// retryable reports whether a peer failure may clear up once the host
// finishes starting. A key mismatch never does.
func retryable(err error) bool {
	if errors.Is(err, ipc.ErrAuthFailed) {
		return false
	}
	switch session.Classify(err) {
	case session.KindDescriptorIO, session.KindConnection:
		return true
	}
	return false
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
