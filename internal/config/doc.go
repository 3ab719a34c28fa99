// SPDX-License-Identifier: MPL-2.0

// Package config handles vivi configuration using Viper with CUE as the file format.
//
// Configuration is read from, in order of precedence: the file given with
// --config, vivi.cue in the project directory, and the user config file
// (~/.config/vivi/config.cue or the platform equivalent). VIVI_* environment
// variables override file values. Files are validated against an embedded CUE
// schema (config_schema.cue) before they are merged.
//
// Resolve turns a loaded Config into Settings: absolute, shell-expanded paths
// that the orchestration steps receive explicitly.
package config
