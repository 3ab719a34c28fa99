// SPDX-License-Identifier: MPL-2.0

// Package manifest reads dependency manifests: pip requirements files and the
// [project] dependencies table of pyproject.toml. Names are normalized per
// PEP 503 so installed packages can be matched against the manifest.
package manifest
