// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"fmt"
	"runtime"

	"github.com/vivi-desktop/vivi/internal/config"
	"github.com/vivi-desktop/vivi/pkg/platform"
)

const (
	// MissingEnvFail stops the launch when the environment is absent.
	MissingEnvFail MissingEnvPolicy = "fail"
	// MissingEnvBuild creates the environment on the fly.
	MissingEnvBuild MissingEnvPolicy = "build"

	// ExitFailFast returns immediately on failure.
	ExitFailFast ExitPolicy = "fail-fast"
	// ExitPause prints the diagnostic and waits for Enter before returning.
	ExitPause ExitPolicy = "pause"
)

type (
	// MissingEnvPolicy decides what CHECK_ENV does with an absent environment.
	MissingEnvPolicy string

	// ExitPolicy decides how a failed launch ends.
	ExitPolicy string

	// Policy is the full set of launch behaviors.
	Policy struct {
		MissingEnv   MissingEnvPolicy
		VerifySource bool
		Exit         ExitPolicy
	}
)

// WindowsPolicy reproduces the Windows launch script.
func WindowsPolicy() Policy {
	return Policy{MissingEnv: MissingEnvFail, VerifySource: true, Exit: ExitPause}
}

// UnixPolicy reproduces the Unix launch script.
func UnixPolicy() Policy {
	return Policy{MissingEnv: MissingEnvBuild, VerifySource: false, Exit: ExitFailFast}
}

// PolicyFor returns the preset for variant; VariantAuto picks by goos.
func PolicyFor(variant config.LaunchVariant, goos string) (Policy, error) {
	if goos == "" {
		goos = runtime.GOOS
	}
	switch variant {
	case config.VariantWindows:
		return WindowsPolicy(), nil
	case config.VariantUnix:
		return UnixPolicy(), nil
	case config.VariantAuto, "":
		if goos == platform.Windows {
			return WindowsPolicy(), nil
		}
		return UnixPolicy(), nil
	default:
		return Policy{}, fmt.Errorf("launch policy: %w", variant.Validate())
	}
}

// WithFailureMode overrides the exit policy unless mode is FailureAuto.
func (p Policy) WithFailureMode(mode config.FailureMode) (Policy, error) {
	switch mode {
	case config.FailureAuto, "":
	case config.FailureFailFast:
		p.Exit = ExitFailFast
	case config.FailurePause:
		p.Exit = ExitPause
	default:
		return p, fmt.Errorf("launch policy: %w", mode.Validate())
	}
	return p, nil
}

// String renders the policy for logs.
func (p Policy) String() string {
	return fmt.Sprintf("missing-env=%s verify-source=%t exit=%s", p.MissingEnv, p.VerifySource, p.Exit)
}
