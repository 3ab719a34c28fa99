// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for vivi.
//
// This package implements the Cobra command hierarchy: setup builds the
// isolated environment, run launches the application, probe reports what the
// host provides, env inspects the environment, package invokes the packaging
// tool and config manages vivi.cue.
package cmd
