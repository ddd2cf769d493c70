package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"remotesync/internal/config"
	"remotesync/internal/hostrun"
	"remotesync/internal/logging"
	"remotesync/internal/session"
	"remotesync/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

// setupCLITestEnv writes a config for objects and returns it without
// starting a host.
func setupCLITestEnv(t *testing.T, objects ...config.Object) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("REMOTESYNC_AUTH_KEY", "")
	t.Setenv("REMOTESYNC_DESCRIPTOR", "")
	cfg := testsupport.NewConfig(t, testsupport.WithObjects(objects...), testsupport.WithAuthKey("cli-test-key"))
	return &cliTestEnv{cfg: cfg, configPath: testsupport.WriteConfig(t, cfg)}
}

// startHost runs the host process loop in the background until the test ends.
func (env *cliTestEnv) startHost(t *testing.T) *session.Session {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan *session.Session, 1)
	done := make(chan error, 1)
	go func() {
		done <- hostrun.Run(ctx, env.cfg, hostrun.Options{
			Logger: logging.NewNop(),
			Ready:  func(host *session.Session) { ready <- host },
		})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Errorf("host did not shut down")
		}
	})

	select {
	case host := <-ready:
		return host
	case err := <-done:
		t.Fatalf("host exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("host did not become ready")
	}
	return nil
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q\nactual: %s", substr, output)
	}
}
