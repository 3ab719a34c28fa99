// SPDX-License-Identifier: MPL-2.0

// Package process runs external programs (the Python runtime, pip, the
// application entry point, the packager) and converts their termination into
// exit codes. All orchestration steps go through the Runner interface so
// they can be exercised with fakes.
package process
