// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/vivi-desktop/vivi/internal/issue"
	"github.com/vivi-desktop/vivi/pkg/platform"
)

const (
	// AppName is the application name.
	AppName = "vivi"
	// ProjectFileName is the per-project config file looked up in the project directory.
	ProjectFileName = "vivi.cue"
	// ConfigFileName is the user-level config file name inside ConfigDir.
	ConfigFileName = "config.cue"
	// EnvPrefix prefixes environment variable overrides (VIVI_ENVIRONMENT_DIR, ...).
	EnvPrefix = "VIVI"
)

//go:embed config_schema.cue
var configSchema string

// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// ConfigDir returns the user configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FindFile returns the config file that Load would read, or "" when defaults apply.
func FindFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)
		}
		return opts.ConfigFilePath, nil
	}

	if opts.ProjectDir != "" {
		projectFile := filepath.Join(opts.ProjectDir, ProjectFileName)
		if fileExists(projectFile) {
			return projectFile, nil
		}
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			// No resolvable home: defaults still apply.
			return "", nil //nolint:nilerr // missing user dir is not an error
		}
		cfgDir = dir
	}

	userFile := filepath.Join(cfgDir, ConfigFileName)
	if fileExists(userFile) {
		return userFile, nil
	}
	return "", nil
}

// loadWithOptions performs option-driven config loading and returns the
// config together with the file it came from ("" for defaults).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path, err := FindFile(opts)
	if err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Use 'vivi config show' to see the default configuration").
			Wrap(err).
			BuildError()
	}

	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check VIVI_* environment variables for empty or unknown values").
			Wrap(err).
			BuildError()
	}

	return &cfg, path, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("runtime.candidates", d.Runtime.Candidates)
	v.SetDefault("environment.dir", d.Environment.Dir)
	v.SetDefault("environment.manifest", d.Environment.Manifest)
	v.SetDefault("app.module", d.App.Module)
	v.SetDefault("app.source", d.App.Source)
	v.SetDefault("launch.variant", string(d.Launch.Variant))
	v.SetDefault("launch.on_failure", string(d.Launch.OnFailure))
	v.SetDefault("packaging.tool", d.Packaging.Tool)
	v.SetDefault("packaging.name", d.Packaging.Name)
	v.SetDefault("packaging.icon", d.Packaging.Icon)
	v.SetDefault("packaging.output_dir", d.Packaging.OutputDir)
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into v.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := decodeCUE(data, path)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteProjectConfig writes cfg as vivi.cue into projectDir. An existing file
// is left untouched unless force is set.
func WriteProjectConfig(projectDir string, cfg *Config, force bool) (string, error) {
	path := filepath.Join(projectDir, ProjectFileName)
	if !force && fileExists(path) {
		return path, nil
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// Vivi launcher configuration\n\n")

	sb.WriteString("runtime: {\n")
	sb.WriteString("\tcandidates: [")
	for i, c := range cfg.Runtime.Candidates {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", c)
	}
	sb.WriteString("]\n}\n")

	sb.WriteString("\nenvironment: {\n")
	fmt.Fprintf(&sb, "\tdir:      %q\n", cfg.Environment.Dir)
	fmt.Fprintf(&sb, "\tmanifest: %q\n", cfg.Environment.Manifest)
	sb.WriteString("}\n")

	sb.WriteString("\napp: {\n")
	fmt.Fprintf(&sb, "\tmodule: %q\n", cfg.App.Module)
	fmt.Fprintf(&sb, "\tsource: %q\n", cfg.App.Source)
	sb.WriteString("}\n")

	sb.WriteString("\nlaunch: {\n")
	fmt.Fprintf(&sb, "\tvariant:    %q\n", cfg.Launch.Variant)
	fmt.Fprintf(&sb, "\ton_failure: %q\n", cfg.Launch.OnFailure)
	sb.WriteString("}\n")

	sb.WriteString("\npackaging: {\n")
	fmt.Fprintf(&sb, "\ttool:       %q\n", cfg.Packaging.Tool)
	fmt.Fprintf(&sb, "\tname:       %q\n", cfg.Packaging.Name)
	fmt.Fprintf(&sb, "\ticon:       %q\n", cfg.Packaging.Icon)
	fmt.Fprintf(&sb, "\toutput_dir: %q\n", cfg.Packaging.OutputDir)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
