// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vivi-desktop/vivi/internal/envbuild"
	"github.com/vivi-desktop/vivi/internal/probe"
)

func newEnvCommand(app *App) *cobra.Command {
	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Inspect the isolated environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var output string
	packagesCmd := &cobra.Command{
		Use:   "packages",
		Short: "List packages installed in the environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPackages(cmd.Context(), app, output)
		},
	}
	packagesCmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	envCmd.AddCommand(packagesCmd)

	envCmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check that every manifest requirement is installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return verifyEnvironment(cmd.Context(), app)
		},
	})

	envCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the environment directory and interpreter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showEnvironmentPath(cmd.Context(), app)
		},
	})

	return envCmd
}

func listPackages(ctx context.Context, app *App, output string) error {
	format, err := probe.ParseFormat(output)
	if err != nil {
		return err
	}

	_, settings, err := app.loadSettings(ctx)
	if err != nil {
		return failure(err, app.verbose())
	}

	pkgs, err := envbuild.New(settings, app.Runner).Packages(ctx)
	if err != nil {
		return failure(err, app.verbose())
	}

	switch format {
	case probe.FormatJSON:
		enc := json.NewEncoder(app.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pkgs)
	case probe.FormatYAML:
		enc := yaml.NewEncoder(app.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(pkgs); err != nil {
			return err
		}
		return enc.Close()
	default:
		t := table.New().
			Border(lipgloss.HiddenBorder()).
			Headers("PACKAGE", "VERSION")
		for _, p := range pkgs {
			t.Row(p.Name, p.Version)
		}
		_, err := fmt.Fprintln(app.stdout, t.Render())
		return err
	}
}

func verifyEnvironment(ctx context.Context, app *App) error {
	_, settings, err := app.loadSettings(ctx)
	if err != nil {
		return failure(err, app.verbose())
	}

	v, err := envbuild.New(settings, app.Runner).Verify(ctx)
	if err != nil {
		return failure(err, app.verbose())
	}
	if err := v.Err(); err != nil {
		return failure(err, app.verbose())
	}

	fmt.Fprintf(app.stdout, "%s All %d requirement(s) from %s are installed\n",
		SuccessStyle.Render("✓"), len(v.Manifest.Requirements), v.Manifest.Path)
	return nil
}

func showEnvironmentPath(ctx context.Context, app *App) error {
	_, settings, err := app.loadSettings(ctx)
	if err != nil {
		return failure(err, app.verbose())
	}

	state := SuccessStyle.Render("present")
	if !envbuild.New(settings, app.Runner).Exists() {
		state = WarningStyle.Render("missing")
	}

	fmt.Fprintf(app.stdout, "%s: %s (%s)\n", CmdStyle.Render("Environment"), settings.EnvDir, state)
	fmt.Fprintf(app.stdout, "%s: %s\n", CmdStyle.Render("Interpreter"), settings.EnvPython())
	fmt.Fprintf(app.stdout, "%s: %s\n", CmdStyle.Render("Manifest"), settings.ManifestPath)
	return nil
}
