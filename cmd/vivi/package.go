// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vivi-desktop/vivi/internal/packager"
)

func newPackageCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "package",
		Short: "Bundle the application into a single executable",
		Long: `Bundle the application into a single executable.

Runs the packaging tool (PyInstaller by default) in the project directory,
preferring the copy installed in the isolated environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackage(cmd.Context(), app)
		},
	}
}

func runPackage(ctx context.Context, app *App) error {
	_, settings, err := app.loadSettings(ctx)
	if err != nil {
		return failure(err, app.verbose())
	}

	p := packager.New(settings, app.Runner, packager.WithOutput(app.stdout))
	fmt.Fprintf(app.stdout, "Packaging %s...\n", settings.PackageName)
	if err := p.Package(ctx); err != nil {
		return failure(err, app.verbose())
	}

	fmt.Fprintf(app.stdout, "%s Built %s\n", SuccessStyle.Render("✓"), filepath.Join(settings.PackageOutputDir, settings.PackageName))
	return nil
}
