// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vivi-desktop/vivi/internal/config"
	"github.com/vivi-desktop/vivi/internal/envbuild"
	"github.com/vivi-desktop/vivi/internal/launcher"
)

type runOptions struct {
	variant   string
	onFailure string
}

func newRunCommand(app *App) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Activate the environment and launch the application",
		Long: `Activate the environment and launch the application.

The windows variant refuses to start without an environment, checks that the
entry source exists and waits for Enter after a failure. The unix variant
builds a missing environment on the fly and exits immediately on failure.
The default picks the variant matching the current platform. Waiting for
Enter only happens when stdin is a terminal.

The application's exit code becomes vivi's exit code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd.Context(), app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.variant, "variant", "", "launch behavior: auto, windows or unix (default from config)")
	cmd.Flags().StringVar(&opts.onFailure, "on-failure", "", "failure handling: auto, fail-fast or pause (default from config)")

	return cmd
}

func runLaunch(ctx context.Context, app *App, opts runOptions) error {
	_, settings, err := app.loadSettings(ctx)
	if err != nil {
		return failure(err, app.verbose())
	}

	policy, err := resolvePolicy(settings, opts)
	if err != nil {
		return failure(err, app.verbose())
	}

	builder := envbuild.New(settings, app.Runner,
		envbuild.WithRuntimeLocator(app.Prober),
		envbuild.WithOutput(app.stdout, app.stderr),
	)

	l := launcher.New(settings, policy, app.Runner,
		launcher.WithEnsurer(builder),
		launcher.WithStdio(app.stdin, app.stdout, app.stderr),
		launcher.WithEnviron(app.environ),
		launcher.WithDiagnostic(func(err error) string {
			_, msg := classifyError(err, app.verbose())
			return strings.TrimRight(msg, "\n")
		}),
	)

	res, err := l.Launch(ctx)
	if err == nil {
		return nil
	}
	if res != nil && res.Reported {
		return &ExitError{Code: res.ExitCode}
	}
	return failure(err, app.verbose())
}

func resolvePolicy(s *config.Settings, opts runOptions) (launcher.Policy, error) {
	variant := s.Variant
	if opts.variant != "" {
		variant = config.LaunchVariant(opts.variant)
	}
	mode := s.OnFailure
	if opts.onFailure != "" {
		mode = config.FailureMode(opts.onFailure)
	}

	policy, err := launcher.PolicyFor(variant, s.GOOS)
	if err != nil {
		return launcher.Policy{}, err
	}
	return policy.WithFailureMode(mode)
}
