// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package envbuild

import "errors"

// errLockUnavailable is returned where flock is not used; the build proceeds unlocked.
var errLockUnavailable = errors.New("flock not available on this platform")

func acquireBuildLock(string) (*buildLock, error) {
	return nil, errLockUnavailable
}

// buildLock is the non-Linux stub.
type buildLock struct{}

// Release is a no-op on non-Linux platforms.
func (l *buildLock) Release() {}
