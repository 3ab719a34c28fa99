// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared test fixtures: Must* helpers that fail the
// test on error, a scriptable fake process Runner, and a fake Python runtime
// that mimics venv creation, pip and module execution on POSIX hosts.
package testutil
