// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/vivi-desktop/vivi/internal/config"
	"github.com/vivi-desktop/vivi/internal/envbuild"
	"github.com/vivi-desktop/vivi/internal/issue"
	"github.com/vivi-desktop/vivi/internal/launcher"
	"github.com/vivi-desktop/vivi/internal/manifest"
	"github.com/vivi-desktop/vivi/internal/packager"
	"github.com/vivi-desktop/vivi/internal/probe"
	"github.com/vivi-desktop/vivi/internal/process"
)

// classifyError maps orchestration failures to issue catalog IDs and returns a
// styled message for CLI rendering. It preserves actionable error details.
func classifyError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	switch {
	case errors.Is(err, probe.ErrRuntimeNotFound):
		issueID = issue.RuntimeNotFoundId
	case errors.Is(err, manifest.ErrManifestNotFound):
		issueID = issue.ManifestNotFoundId
	case errors.Is(err, envbuild.ErrEnvironmentMissing):
		issueID = issue.EnvironmentNotFoundId
	case errors.Is(err, envbuild.ErrBuildFailed), errors.Is(err, envbuild.ErrPackagesMissing):
		issueID = issue.EnvironmentBuildFailedId
	case errors.Is(err, launcher.ErrSourceMissing):
		issueID = issue.EntryPointNotFoundId
	case errors.Is(err, launcher.ErrApplicationFailed):
		issueID = issue.ApplicationFailedId
	case errors.Is(err, config.ErrConfigNotFound), errors.Is(err, config.ErrInvalidConfig):
		issueID = issue.ConfigLoadFailedId
	case errors.Is(err, packager.ErrPackagerNotFound):
		issueID = issue.PackagerNotFoundId
	case errors.Is(err, packager.ErrPackagingFailed):
		issueID = issue.PackagingFailedId
	}

	return issueID, fmt.Sprintf("%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// failure wraps err for the root error handler: the exit code is the
// application's own for ApplicationFailure and 1 otherwise.
func failure(err error, verbose bool) error {
	issueID, styled := classifyError(err, verbose)
	return &ExitError{
		Code: process.ExitCode(launcher.ExitCodeOf(err)),
		Err:  newServiceError(err, issueID, styled),
	}
}
