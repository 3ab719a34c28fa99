// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vivi-desktop/vivi/internal/envbuild"
)

func newSetupCommand(app *App) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the isolated environment and install dependencies",
		Long: `Create the isolated environment and install dependencies.

setup looks for a Python runtime, creates the virtual environment if it does
not exist yet and installs the dependency manifest into it. An existing
environment is left untouched; delete it to rebuild.

While the environment is being built, a "<dir>.lock" file next to it keeps
concurrent setups apart. It is removed once the build succeeds; after a
failed build it can be deleted together with the environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context(), app, verify)
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "check installed packages against the manifest afterwards")

	return cmd
}

func runSetup(ctx context.Context, app *App, verify bool) error {
	_, settings, err := app.loadSettings(ctx)
	if err != nil {
		return failure(err, app.verbose())
	}

	out := app.stdout
	fmt.Fprintln(out, TitleStyle.Render("Vivi setup"))
	fmt.Fprintln(out, "Checking for Python...")

	report, err := app.Prober.Probe(ctx, settings.RuntimeCandidates)
	if err != nil {
		return failure(err, app.verbose())
	}
	fmt.Fprintf(out, "%s Found %s at %s\n", SuccessStyle.Render("✓"), report.RuntimeVersion, report.RuntimePath)
	if report.Host.IsCompatibilitySubsystem() {
		fmt.Fprintln(out, WarningStyle.Render("! Running under a compatibility subsystem; the GUI needs a display server"))
	}
	settings.RuntimePath = report.RuntimePath

	builder := envbuild.New(settings, app.Runner, envbuild.WithOutput(out, app.stderr))
	outcome, err := builder.Ensure(ctx)
	if err != nil {
		return failure(err, app.verbose())
	}
	if outcome.Created {
		fmt.Fprintf(out, "%s Installed %d requirement(s) into %s\n", SuccessStyle.Render("✓"), len(outcome.Manifest.Requirements), outcome.EnvDir)
	}

	if verify {
		v, err := builder.Verify(ctx)
		if err != nil {
			return failure(err, app.verbose())
		}
		if err := v.Err(); err != nil {
			return failure(err, app.verbose())
		}
		fmt.Fprintf(out, "%s All %d requirement(s) installed\n", SuccessStyle.Render("✓"), len(v.Manifest.Requirements))
	}

	fmt.Fprintf(out, "%s Setup complete. Start the application with %s\n", SuccessStyle.Render("✓"), CmdStyle.Render("vivi run"))
	return nil
}
