// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"os"
	"runtime"
	"strings"
	"sync"
)

// Host kind constants.
const (
	// HostUnknown means the kernel metadata could not be read.
	HostUnknown HostKind = "unknown"
	// HostNative is a host running its own kernel natively.
	HostNative HostKind = "native"
	// HostCompatibilitySubsystem is a Unix userland hosted on a Windows kernel (WSL).
	HostCompatibilitySubsystem HostKind = "compatibility-subsystem"
)

// compatibilityMarker is the vendor string WSL kernels carry in their version identification.
const compatibilityMarker = "microsoft"

// kernelVersionFiles are consulted in order; the first readable one decides.
var kernelVersionFiles = []string{
	"/proc/sys/kernel/osrelease",
	"/proc/version",
}

// ErrKernelVersionUnavailable is returned when no kernel version file could be read.
var ErrKernelVersionUnavailable = errors.New("kernel version metadata unavailable")

// detectHostOnce caches the host detection result for the lifetime of the process.
// detectHostFrom MUST NOT panic: sync.OnceValue re-panics on every call.
var detectHostOnce = sync.OnceValue(func() HostKind {
	return detectHostFrom(runtime.GOOS, os.ReadFile)
})

// HostKind classifies the operating system the process is running on.
type HostKind string

// String returns the host kind name.
func (h HostKind) String() string { return string(h) }

// IsCompatibilitySubsystem reports whether the host is a Windows-compatibility subsystem.
func (h HostKind) IsCompatibilitySubsystem() bool { return h == HostCompatibilitySubsystem }

// DetectHost returns the kind of host the current process runs on.
// The result is cached after the first call.
func DetectHost() HostKind {
	return detectHostOnce()
}

// DetectHostWith performs uncached host detection with an injected file reader.
func DetectHostWith(goos string, readFile func(string) ([]byte, error)) HostKind {
	return detectHostFrom(goos, readFile)
}

// detectHostFrom classifies the host. Windows is always native; on other
// platforms the kernel version files are inspected for the vendor marker.
func detectHostFrom(goos string, readFile func(string) ([]byte, error)) HostKind {
	if goos == Windows {
		return HostNative
	}

	version, err := readKernelVersion(readFile)
	if err != nil {
		if goos == Linux {
			return HostUnknown
		}
		// Non-Linux Unix kernels have no /proc; they cannot be WSL.
		return HostNative
	}

	return ClassifyKernelVersion(version)
}

// ClassifyKernelVersion maps a kernel version string to a HostKind.
func ClassifyKernelVersion(version string) HostKind {
	version = strings.TrimSpace(version)
	if version == "" {
		return HostUnknown
	}
	if strings.Contains(strings.ToLower(version), compatibilityMarker) {
		return HostCompatibilitySubsystem
	}
	return HostNative
}

func readKernelVersion(readFile func(string) ([]byte, error)) (string, error) {
	for _, path := range kernelVersionFiles {
		data, err := readFile(path)
		if err == nil && len(data) > 0 {
			return string(data), nil
		}
	}
	return "", ErrKernelVersionUnavailable
}
