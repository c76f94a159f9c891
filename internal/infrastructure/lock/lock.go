// Package lock serializes writers to the .mythos directory across processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// FileName is the lock file created inside the config directory.
const FileName = "mythos.lock"

// retryDelay is how often LockContext retries a held lock.
const retryDelay = 100 * time.Millisecond

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("another mythos process holds the lock")

// FileLock is an exclusive advisory lock on <dir>/mythos.lock.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New creates a lock for the given directory. Nothing is acquired yet.
func New(dir string) *FileLock {
	path := filepath.Join(dir, FileName)
	return &FileLock{
		path:  path,
		flock: flock.New(path),
	}
}

func (l *FileLock) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	return nil
}

// LockContext blocks until the lock is acquired or ctx is done.
func (l *FileLock) LockContext(ctx context.Context) error {
	if err := l.ensureDir(); err != nil {
		return err
	}

	ok, err := l.flock.TryLockContext(ctx, retryDelay)
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	l.locked = true
	return nil
}

// TryLock acquires the lock without blocking. It returns ErrLocked when
// another process holds it.
func (l *FileLock) TryLock() error {
	if err := l.ensureDir(); err != nil {
		return err
	}

	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Calling it on an unlocked FileLock is a no-op.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *FileLock) Path() string {
	return l.path
}

// Locked reports whether this FileLock holds the lock.
func (l *FileLock) Locked() bool {
	return l.locked
}
