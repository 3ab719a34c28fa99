// SPDX-License-Identifier: MPL-2.0

package envbuild

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vivi-desktop/vivi/internal/config"
	"github.com/vivi-desktop/vivi/internal/issue"
	"github.com/vivi-desktop/vivi/internal/manifest"
	"github.com/vivi-desktop/vivi/internal/probe"
	"github.com/vivi-desktop/vivi/internal/process"
)

var (
	// ErrBuildFailed is the kind of every environment creation or installation failure.
	ErrBuildFailed = errors.New("environment build failed")
	// ErrEnvironmentMissing is returned by inspection commands when no environment exists.
	ErrEnvironmentMissing = errors.New("isolated environment not found")
)

type (
	// RuntimeLocator resolves the Python runtime when Settings does not carry one yet.
	RuntimeLocator interface {
		Probe(ctx context.Context, candidates []string) (*probe.Report, error)
	}

	// Outcome describes what Ensure did.
	Outcome struct {
		// Created is false when the environment already existed.
		Created bool
		EnvDir  string
		// Manifest is the installed manifest; nil when nothing was created.
		Manifest *manifest.Manifest
	}

	// Builder creates and inspects the isolated environment described by Settings.
	Builder struct {
		settings *config.Settings
		runner   process.Runner
		locator  RuntimeLocator
		out      io.Writer
		errOut   io.Writer
	}

	// Option configures a Builder.
	Option func(*Builder)
)

// WithRuntimeLocator sets the prober used when Settings.RuntimePath is empty.
func WithRuntimeLocator(l RuntimeLocator) Option {
	return func(b *Builder) { b.locator = l }
}

// WithOutput streams status lines and subprocess output to out and errOut.
func WithOutput(out, errOut io.Writer) Option {
	return func(b *Builder) {
		b.out = out
		b.errOut = errOut
	}
}

// New creates a Builder. A nil runner uses os/exec.
func New(settings *config.Settings, runner process.Runner, opts ...Option) *Builder {
	if runner == nil {
		runner = process.NewExecRunner()
	}
	b := &Builder{
		settings: settings,
		runner:   runner,
		out:      io.Discard,
		errOut:   io.Discard,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Exists reports whether the environment directory is present.
func (b *Builder) Exists() bool {
	info, err := os.Stat(b.settings.EnvDir)
	return err == nil && info.IsDir()
}

// Ensure creates the environment unless it already exists.
func (b *Builder) Ensure(ctx context.Context) (*Outcome, error) {
	envDir := b.settings.EnvDir

	if b.Exists() {
		slog.Debug("isolated environment already exists", "dir", envDir)
		fmt.Fprintf(b.out, "Virtual environment already exists at %s\n", envDir)
		return &Outcome{EnvDir: envDir}, nil
	}

	if err := os.MkdirAll(filepath.Dir(envDir), 0o755); err != nil {
		return nil, b.buildError("prepare environment directory", envDir, err)
	}

	lock, err := acquireBuildLock(envDir)
	switch {
	case errors.Is(err, errLockUnavailable):
		slog.Debug("build lock unavailable, continuing unlocked", "error", err)
	case err != nil:
		return nil, b.buildError("lock environment directory", envDir, err)
	}
	defer lock.Release()

	// Another process may have finished the build while we waited on the lock.
	if b.Exists() {
		slog.Debug("isolated environment created concurrently", "dir", envDir)
		fmt.Fprintf(b.out, "Virtual environment already exists at %s\n", envDir)
		return &Outcome{EnvDir: envDir}, nil
	}

	m, err := manifest.Load(b.settings.ManifestPath)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read dependency manifest").
			WithResource(b.settings.ManifestPath).
			WithSuggestion("Create the manifest or point environment.manifest in vivi.cue at it").
			Wrap(fmt.Errorf("%w: %w", ErrBuildFailed, err)).
			BuildError()
	}

	runtimePath, err := b.runtimePath(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(b.out, "Creating virtual environment in %s...\n", envDir)
	if err := b.run(ctx, process.Command{
		Path: runtimePath,
		Args: []string{"-m", "venv", envDir},
		Dir:  b.settings.ProjectDir,
	}); err != nil {
		return nil, b.buildError("create virtual environment", envDir, err,
			"Check that the venv module is installed (on Debian/Ubuntu: apt install python3-venv)",
			"Delete "+envDir+" before retrying; a partial environment is treated as complete")
	}

	if m.Kind == manifest.KindPyproject && len(m.Requirements) == 0 {
		// pip refuses an install with no requirements.
		fmt.Fprintf(b.out, "No dependencies declared in %s\n", m.Path)
		slog.Debug("isolated environment created", "dir", envDir, "requirements", 0)
		removeLockFile(envDir)
		return &Outcome{Created: true, EnvDir: envDir, Manifest: m}, nil
	}

	fmt.Fprintf(b.out, "Installing dependencies from %s...\n", m.Path)
	if err := b.run(ctx, process.Command{
		Path: b.settings.EnvPython(),
		Args: append([]string{"-m", "pip", "install"}, m.InstallArgs()...),
		Dir:  b.settings.ProjectDir,
	}); err != nil {
		return nil, b.buildError("install dependencies", m.Path, err,
			"Check your network connection and the package names in the manifest",
			"Delete "+envDir+" and run 'vivi setup' again; the environment was left as-is")
	}

	slog.Debug("isolated environment created", "dir", envDir, "requirements", len(m.Requirements))
	removeLockFile(envDir)
	return &Outcome{Created: true, EnvDir: envDir, Manifest: m}, nil
}

func (b *Builder) runtimePath(ctx context.Context) (string, error) {
	if b.settings.RuntimePath != "" {
		return b.settings.RuntimePath, nil
	}
	if b.locator == nil {
		return "", b.buildError("locate Python runtime", "", probe.ErrRuntimeNotFound)
	}
	report, err := b.locator.Probe(ctx, b.settings.RuntimeCandidates)
	if err != nil {
		return "", err
	}
	b.settings.RuntimePath = report.RuntimePath
	return report.RuntimePath, nil
}

func (b *Builder) run(ctx context.Context, cmd process.Command) error {
	cmd.Stdout = b.out
	cmd.Stderr = b.errOut
	result := b.runner.Run(ctx, cmd)
	if result.Error != nil {
		return fmt.Errorf("%s: %w", cmd.String(), result.Error)
	}
	if !result.ExitCode.IsSuccess() {
		return fmt.Errorf("%s: exited with code %d", cmd.String(), result.ExitCode)
	}
	return nil
}

func (b *Builder) buildError(op, resource string, cause error, suggestions ...string) error {
	ctx := issue.NewErrorContext().
		WithOperation(op).
		WithResource(resource).
		Wrap(fmt.Errorf("%w: %w", ErrBuildFailed, cause))
	for _, s := range suggestions {
		ctx.WithSuggestion(s)
	}
	return ctx.BuildError()
}

func (b *Builder) requireEnvironment(op string) error {
	if b.Exists() {
		return nil
	}
	return issue.NewErrorContext().
		WithOperation(op).
		WithResource(b.settings.EnvDir).
		WithSuggestion("Run 'vivi setup' first").
		Wrap(ErrEnvironmentMissing).
		BuildError()
}

// removeLockFile deletes the lock file while the lock is still held. Waiters
// blocked on the old file recheck Exists after acquiring it, and later
// processes see the environment and never lock.
func removeLockFile(envDir string) {
	if err := os.Remove(lockPathFor(envDir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("lock file not removed", "error", err)
	}
}

func lockPathFor(envDir string) string {
	return strings.TrimRight(envDir, `/\`) + ".lock"
}
