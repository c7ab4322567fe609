// Package runlock guarantees that at most one subburn process works on a
// given input at a time. Two runs on the same video would race on the shared
// intermediate file names, so the second one is refused up front.
package runlock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld reports that another process holds the lock for the same input.
var ErrHeld = errors.New("input is already being processed")

// Lock is an acquired per-input lock.
type Lock struct {
	path  string
	flock *flock.Flock
}

// PathFor returns the lock file used for key inside dir.
func PathFor(dir, key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(dir, hex.EncodeToString(sum[:])+".lock")
}

// Acquire takes a non-blocking exclusive lock for key. The key is normally the
// absolute base name of the input, which every artifact path derives from.
func Acquire(dir, key string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	path := PathFor(dir, key)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrHeld, path)
	}
	return &Lock{path: path, flock: fl}, nil
}

// Path reports the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks the lock. The file stays in place so a concurrent opener
// never ends up holding a lock on an unlinked inode.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
