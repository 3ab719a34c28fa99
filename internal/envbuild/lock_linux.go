// SPDX-License-Identifier: MPL-2.0

//go:build linux

package envbuild

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// errLockUnavailable is never returned on Linux; it exists for parity with lock_other.go.
var errLockUnavailable = errors.New("flock not available on this platform")

// buildLock holds a blocking exclusive flock on "<envDir>.lock" so that two
// vivi processes never create the same environment concurrently. The kernel
// releases the lock if the process dies.
type buildLock struct {
	file *os.File
}

func acquireBuildLock(envDir string) (*buildLock, error) {
	lockPath := lockPathFor(envDir)

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", lockPath, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("flock %s: %w", lockPath, err)
	}

	return &buildLock{file: f}, nil
}

// Release unlocks and closes the lock file. Safe to call more than once.
func (l *buildLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		slog.Debug("flock unlock failed", "error", err)
	}
	if err := l.file.Close(); err != nil {
		slog.Debug("lock file close failed", "error", err)
	}
	l.file = nil
}
