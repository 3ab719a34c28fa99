// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// It centralizes GOOS comparisons, the per-OS layout of a Python virtual
// environment, and detection of Windows-compatibility subsystems (WSL) running
// on top of a Windows kernel.
package platform
