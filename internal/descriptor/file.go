package descriptor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockPath returns the sidecar lock file guarding path.
func LockPath(path string) string {
	return path + ".lock"
}

// Write encodes d and atomically replaces the file at path. The file holds
// the authentication key, so it is created with owner-only permissions.
func Write(path string, d Descriptor) error {
	data, err := Encode(d)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create descriptor directory: %w", err)
	}

	lock := flock.New(LockPath(path))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock descriptor: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, ".descriptor-*")
	if err != nil {
		return fmt.Errorf("create descriptor temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod descriptor: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write descriptor: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync descriptor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close descriptor: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("install descriptor: %w", err)
	}
	return nil
}

// Read loads and decodes the descriptor at path. Missing files surface an
// error matching os.ErrNotExist.
func Read(path string) (Descriptor, error) {
	// No lock sidecar is created for a descriptor that is not there yet.
	if _, err := os.Stat(path); err != nil {
		return Descriptor{}, fmt.Errorf("read descriptor: %w", err)
	}
	// The shared lock is skipped when the sidecar cannot be created, which
	// happens on read-only shares.
	lock := flock.New(LockPath(path))
	if err := lock.RLock(); err == nil {
		defer func() { _ = lock.Unlock() }()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read descriptor: %w", err)
	}
	return Decode(data)
}

// Remove deletes the descriptor and its lock sidecar.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove descriptor: %w", err)
	}
	if err := os.Remove(LockPath(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove descriptor lock: %w", err)
	}
	return nil
}
