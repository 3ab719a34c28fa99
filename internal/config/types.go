// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
)

const (
	// VariantAuto selects the windows variant on Windows and unix elsewhere.
	VariantAuto LaunchVariant = "auto"
	// VariantWindows hard-fails on a missing environment, verifies the entry
	// source and pauses for acknowledgment on failure.
	VariantWindows LaunchVariant = "windows"
	// VariantUnix builds a missing environment on the fly and fails fast.
	VariantUnix LaunchVariant = "unix"

	// FailureAuto uses the variant's default failure mode.
	FailureAuto FailureMode = "auto"
	// FailureFailFast exits immediately on failure.
	FailureFailFast FailureMode = "fail-fast"
	// FailurePause waits for the user to acknowledge a failure before exiting.
	FailurePause FailureMode = "pause"
)

var (
	// ErrInvalidLaunchVariant is returned when a LaunchVariant value is not recognized.
	ErrInvalidLaunchVariant = errors.New("invalid launch variant")
	// ErrInvalidFailureMode is returned when a FailureMode value is not recognized.
	ErrInvalidFailureMode = errors.New("invalid failure mode")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LaunchVariant selects which launcher script behavior to reproduce.
	LaunchVariant string

	// FailureMode selects how the launcher reports a failure.
	FailureMode string

	// InvalidLaunchVariantError is returned when a LaunchVariant value is not recognized.
	InvalidLaunchVariantError struct {
		Value LaunchVariant
	}

	// InvalidFailureModeError is returned when a FailureMode value is not recognized.
	InvalidFailureModeError struct {
		Value FailureMode
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		Runtime     RuntimeConfig     `json:"runtime" mapstructure:"runtime"`
		Environment EnvironmentConfig `json:"environment" mapstructure:"environment"`
		App         AppConfig         `json:"app" mapstructure:"app"`
		Launch      LaunchConfig      `json:"launch" mapstructure:"launch"`
		Packaging   PackagingConfig   `json:"packaging" mapstructure:"packaging"`
		UI          UIConfig          `json:"ui" mapstructure:"ui"`
	}

	// RuntimeConfig configures Python runtime discovery.
	RuntimeConfig struct {
		// Candidates are tried in order on PATH (or used as-is when they contain a separator).
		Candidates []string `json:"candidates" mapstructure:"candidates"`
	}

	// EnvironmentConfig locates the isolated environment and its manifest.
	// Relative paths are resolved against the project directory.
	EnvironmentConfig struct {
		Dir      string `json:"dir" mapstructure:"dir"`
		Manifest string `json:"manifest" mapstructure:"manifest"`
	}

	// AppConfig describes the application entry point.
	AppConfig struct {
		// Module is run with "python -m".
		Module string `json:"module" mapstructure:"module"`
		// Source is the file that must exist for Module to be runnable.
		Source string `json:"source" mapstructure:"source"`
	}

	// LaunchConfig configures the launcher.
	LaunchConfig struct {
		Variant   LaunchVariant `json:"variant" mapstructure:"variant"`
		OnFailure FailureMode   `json:"on_failure" mapstructure:"on_failure"`
	}

	// PackagingConfig configures the external packaging tool.
	PackagingConfig struct {
		Tool      string `json:"tool" mapstructure:"tool"`
		Name      string `json:"name" mapstructure:"name"`
		Icon      string `json:"icon" mapstructure:"icon"`
		OutputDir string `json:"output_dir" mapstructure:"output_dir"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// String returns the string representation of the LaunchVariant.
func (v LaunchVariant) String() string { return string(v) }

// Validate returns an error if the LaunchVariant is not one of the defined variants.
func (v LaunchVariant) Validate() error {
	switch v {
	case VariantAuto, VariantWindows, VariantUnix:
		return nil
	default:
		return &InvalidLaunchVariantError{Value: v}
	}
}

// Error implements the error interface.
func (e *InvalidLaunchVariantError) Error() string {
	return fmt.Sprintf("invalid launch variant %q (valid: auto, windows, unix)", e.Value)
}

// Unwrap returns ErrInvalidLaunchVariant for errors.Is() compatibility.
func (e *InvalidLaunchVariantError) Unwrap() error { return ErrInvalidLaunchVariant }

// String returns the string representation of the FailureMode.
func (m FailureMode) String() string { return string(m) }

// Validate returns an error if the FailureMode is not one of the defined modes.
func (m FailureMode) Validate() error {
	switch m {
	case FailureAuto, FailureFailFast, FailurePause:
		return nil
	default:
		return &InvalidFailureModeError{Value: m}
	}
}

// Error implements the error interface.
func (e *InvalidFailureModeError) Error() string {
	return fmt.Sprintf("invalid failure mode %q (valid: auto, fail-fast, pause)", e.Value)
}

// Unwrap returns ErrInvalidFailureMode for errors.Is() compatibility.
func (e *InvalidFailureModeError) Unwrap() error { return ErrInvalidFailureMode }

// Validate checks the fields CUE cannot see after environment overrides.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Runtime.Candidates) == 0 {
		errs = append(errs, errors.New("runtime.candidates must not be empty"))
	}
	if c.Environment.Dir == "" {
		errs = append(errs, errors.New("environment.dir must not be empty"))
	}
	if c.Environment.Manifest == "" {
		errs = append(errs, errors.New("environment.manifest must not be empty"))
	}
	if c.App.Module == "" {
		errs = append(errs, errors.New("app.module must not be empty"))
	}
	if err := c.Launch.Variant.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Launch.OnFailure.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap exposes ErrInvalidConfig and every field error to errors.Is/As.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the layout the original setup and launcher scripts assume.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Candidates: []string{"python3", "python", "py"},
		},
		Environment: EnvironmentConfig{
			Dir:      "venv",
			Manifest: "requirements.txt",
		},
		App: AppConfig{
			Module: "src.main",
			Source: "src/main.py",
		},
		Launch: LaunchConfig{
			Variant:   VariantAuto,
			OnFailure: FailureAuto,
		},
		Packaging: PackagingConfig{
			Tool:      "pyinstaller",
			Name:      "Vivi",
			Icon:      "assets/icon.ico",
			OutputDir: "dist",
		},
	}
}
