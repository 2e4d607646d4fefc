// Package transaction serializes install operations. A single advisory
// file lock under the Relay config directory ensures two relayup
// processes never modify the installation concurrently.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryInterval is how often a blocked acquire re-polls the lock.
const lockRetryInterval = 250 * time.Millisecond

// ErrLockHeld indicates another relayup process holds the install lock.
var ErrLockHeld = errors.New("another install operation is in progress")

// Lock is an exclusive install lock backed by an advisory file lock.
// The lock file carries the holder's pid and start time for
// diagnostics; the advisory lock itself is what provides exclusion, so
// a crashed holder never leaves a stale lock behind.
type Lock struct {
	path     string
	metaPath string
	fl       *flock.Flock
}

// New creates an install lock rooted at dir. The lock is not acquired.
func New(dir string) *Lock {
	lockPath := filepath.Join(dir, "install.lock")
	return &Lock{
		path:     lockPath,
		metaPath: lockPath + ".info",
		fl:       flock.New(lockPath),
	}
}

// Acquire takes the lock without waiting. It fails with ErrLockHeld
// when another process has it.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire install lock: %w", err)
	}
	if !ok {
		return l.heldError()
	}

	l.writeMetadata()
	return nil
}

// AcquireWait takes the lock, polling until it succeeds or ctx ends.
func (l *Lock) AcquireWait(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := l.fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("acquire install lock: %w", err)
	}
	if !ok {
		return l.heldError()
	}

	l.writeMetadata()
	return nil
}

// Release drops the lock and removes the metadata file.
func (l *Lock) Release() error {
	os.Remove(l.metaPath)
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release install lock: %w", err)
	}
	return nil
}

// writeMetadata records who holds the lock. Best effort; the metadata
// only feeds error messages and diagnostics.
func (l *Lock) writeMetadata() {
	data := fmt.Sprintf("pid=%d\nstarted=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	_ = os.WriteFile(l.metaPath, []byte(data), 0600)
}

// heldError builds the ErrLockHeld error, including holder metadata
// when it is readable.
func (l *Lock) heldError() error {
	data, err := os.ReadFile(l.metaPath)
	if err != nil || len(data) == 0 {
		return ErrLockHeld
	}
	holder := strings.ReplaceAll(strings.TrimSpace(string(data)), "\n", ", ")
	return fmt.Errorf("%w (%s)", ErrLockHeld, holder)
}
