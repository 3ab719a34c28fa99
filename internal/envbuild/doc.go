// SPDX-License-Identifier: MPL-2.0

// Package envbuild guarantees the isolated Python environment exists.
//
// Ensure is idempotent: an existing environment directory is taken as valid
// and left untouched. Otherwise the environment is created with the runtime's
// venv module and the dependency manifest is installed into it with a single
// pip invocation. A failed build is not rolled back.
package envbuild
