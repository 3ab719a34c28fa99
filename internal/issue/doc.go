// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints; the issue catalog holds Markdown help pages rendered with
// glamour for each failure class the CLI reports.
package issue
