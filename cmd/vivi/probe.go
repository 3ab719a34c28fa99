// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vivi-desktop/vivi/internal/probe"
)

func newProbeCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Report the Python runtime and host kind",
		Long: `Report the Python runtime and host kind.

Exits 1 when no runtime candidate is usable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), app, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")

	return cmd
}

func runProbe(ctx context.Context, app *App, output string) error {
	format, err := probe.ParseFormat(output)
	if err != nil {
		return err
	}

	_, settings, err := app.loadSettings(ctx)
	if err != nil {
		return failure(err, app.verbose())
	}

	report, probeErr := app.Prober.Probe(ctx, settings.RuntimeCandidates)
	if report != nil {
		if err := report.Write(app.stdout, format); err != nil {
			return err
		}
	}
	if probeErr != nil {
		return failure(probeErr, app.verbose())
	}
	return nil
}
