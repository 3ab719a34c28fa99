// SPDX-License-Identifier: MPL-2.0

// Package launcher activates the isolated environment and runs the
// application's entry module.
//
// A launch walks CHECK_ENV, CHECK_SOURCE, ACTIVATE and RUN and ends in SUCCESS
// or FAILURE. A Policy captures how the platform launch scripts differed: what
// to do when the environment is missing, whether the entry source is checked,
// and whether a failure waits for the user before exiting.
package launcher
