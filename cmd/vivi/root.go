// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/vivi-desktop/vivi/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the vivi command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vivi",
		Short: "Set up and launch the Vivi desktop assistant",
		Long: TitleStyle.Render("vivi") + SubtitleStyle.Render(" - Set up and launch the Vivi desktop assistant") + `

vivi prepares an isolated Python environment for Vivi, installs its
dependencies from the manifest and launches the application inside it.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'vivi setup' in the project directory
  2. Start the application with 'vivi run'

` + SubtitleStyle.Render("Examples:") + `
  vivi setup                  Create venv/ and install requirements.txt
  vivi run                    Launch like the platform's launch script
  vivi run --variant unix     Build the environment on demand, fail fast
  vivi probe -o json          Report the Python runtime and host kind
  vivi package                Build a single-file executable`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.initLogging()
		},
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is vivi.cue in the project directory)")
	pf.StringVarP(&app.flags.projectDir, "project-dir", "C", "", "project directory (default is the working directory)")
	pf.StringVar(&app.flags.logFile, "log-file", "", "also write debug logs as JSON to this file")

	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.AddCommand(newSetupCommand(app))
	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newProbeCommand(app))
	rootCmd.AddCommand(newEnvCommand(app))
	rootCmd.AddCommand(newPackageCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the App and runs the command tree. It is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		os.Exit(1)
	}

	err = fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.renderError),
	)
	if closeErr := app.Close(); closeErr != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning:"), closeErr)
	}
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// renderError is the fang error handler. Already-reported failures stay silent.
func (a *App) renderError(w io.Writer, _ fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(w, svcErr, a.verbose())
		return
	}

	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.verbose()))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
