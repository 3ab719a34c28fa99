// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vivi-desktop/vivi/internal/config"
	"github.com/vivi-desktop/vivi/internal/issue"
)

// newConfigCommand creates the `vivi config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vivi configuration",
		Long: `Manage vivi configuration.

Configuration is read from the first of:
  - the file given with --config
  - vivi.cue in the project directory
  - the user config file:
      Linux: ~/.config/vivi/config.cue
      macOS: ~/Library/Application Support/vivi/config.cue
      Windows: %APPDATA%\vivi\config.cue

VIVI_* environment variables override file values, for example
VIVI_ENVIRONMENT_DIR or VIVI_LAUNCH_VARIANT.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := app.loadOptions()
			if err != nil {
				return err
			}
			cfg, err := app.Config.Load(cmd.Context(), opts)
			if err != nil {
				return failure(err, app.verbose())
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a vivi.cue with the defaults into the project directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing vivi.cue")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	opts, err := app.loadOptions()
	if err != nil {
		return err
	}

	cfg, err := app.Config.Load(ctx, opts)
	if err != nil {
		if app.verbose() {
			rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
			fmt.Fprint(app.stderr, rendered)
		}
		return failure(err, app.verbose())
	}

	headerStyle := TitleStyle
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	out := app.stdout
	fmt.Fprintln(out, headerStyle.Render("Current Configuration"))
	fmt.Fprintln(out)

	path, _ := config.FindFile(opts)
	if path != "" {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	sections := []struct {
		name   string
		values [][2]string
	}{
		{"runtime", [][2]string{{"candidates", strings.Join(cfg.Runtime.Candidates, ", ")}}},
		{"environment", [][2]string{{"dir", cfg.Environment.Dir}, {"manifest", cfg.Environment.Manifest}}},
		{"app", [][2]string{{"module", cfg.App.Module}, {"source", cfg.App.Source}}},
		{"launch", [][2]string{{"variant", cfg.Launch.Variant.String()}, {"on_failure", cfg.Launch.OnFailure.String()}}},
		{"packaging", [][2]string{
			{"tool", cfg.Packaging.Tool},
			{"name", cfg.Packaging.Name},
			{"icon", cfg.Packaging.Icon},
			{"output_dir", cfg.Packaging.OutputDir},
		}},
		{"ui", [][2]string{{"verbose", fmt.Sprintf("%v", cfg.UI.Verbose)}}},
	}

	for i, sec := range sections {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s:\n", keyStyle.Render(sec.name))
		for _, kv := range sec.values {
			fmt.Fprintf(out, "  %s: %s\n", kv[0], valueStyle.Render(kv[1]))
		}
	}

	return nil
}

func showConfigPath(app *App) error {
	opts, err := app.loadOptions()
	if err != nil {
		return err
	}

	out := app.stdout
	fmt.Fprintf(out, "Project file: %s\n", filepath.Join(opts.ProjectDir, config.ProjectFileName))
	if cfgDir, err := config.ConfigDir(); err == nil {
		fmt.Fprintf(out, "User file: %s\n", filepath.Join(cfgDir, config.ConfigFileName))
	}

	active, err := config.FindFile(opts)
	if err != nil {
		return failure(err, app.verbose())
	}
	if active == "" {
		active = "(none, using defaults)"
	}
	fmt.Fprintf(out, "Active: %s\n", active)
	return nil
}

func initConfig(app *App, force bool) error {
	dir, err := app.projectDir()
	if err != nil {
		return err
	}

	path, err := config.WriteProjectConfig(dir, config.DefaultConfig(), force)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}
