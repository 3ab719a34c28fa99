// SPDX-License-Identifier: MPL-2.0

// Package packager invokes the external packaging tool that bundles the
// application into a single executable.
package packager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vivi-desktop/vivi/internal/config"
	"github.com/vivi-desktop/vivi/internal/issue"
	"github.com/vivi-desktop/vivi/internal/process"
	"github.com/vivi-desktop/vivi/pkg/platform"
)

var (
	// ErrPackagerNotFound is returned when the packaging tool cannot be located.
	ErrPackagerNotFound = errors.New("packaging tool not found")
	// ErrPackagingFailed is returned when the packaging tool exits non-zero.
	ErrPackagingFailed = errors.New("packaging failed")
)

type (
	// Packager runs the packaging tool for the project described by Settings.
	Packager struct {
		settings *config.Settings
		runner   process.Runner
		lookPath func(string) (string, error)
		out      io.Writer
	}

	// Option configures a Packager.
	Option func(*Packager)
)

// WithLookPath overrides PATH lookup of the tool.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(p *Packager) { p.lookPath = fn }
}

// WithOutput streams the tool's stdout to w.
func WithOutput(w io.Writer) Option {
	return func(p *Packager) { p.out = w }
}

// New creates a Packager. A nil runner uses os/exec.
func New(settings *config.Settings, runner process.Runner, opts ...Option) *Packager {
	if runner == nil {
		runner = process.NewExecRunner()
	}
	p := &Packager{settings: settings, runner: runner, lookPath: exec.LookPath, out: io.Discard}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tool resolves the packaging tool, preferring the copy installed in the
// isolated environment over one on PATH.
func (p *Packager) Tool() (string, error) {
	name := p.settings.PackageTool
	if strings.ContainsAny(name, `/\`) {
		if fileExists(name) {
			return name, nil
		}
		return "", fmt.Errorf("%w: %s", ErrPackagerNotFound, name)
	}

	candidates := []string{filepath.Join(p.settings.EnvBinDir(), name)}
	if p.settings.GOOS == platform.Windows {
		candidates = append([]string{filepath.Join(p.settings.EnvBinDir(), name+".exe")}, candidates...)
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c, nil
		}
	}

	path, err := p.lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPackagerNotFound, name, err)
	}
	return path, nil
}

// Args returns the tool arguments: a single windowed executable named after
// the application, bundling the source tree as data.
func (p *Packager) Args() []string {
	s := p.settings
	srcDir := filepath.Dir(s.EntrySource)
	srcName := filepath.Base(srcDir)

	args := []string{
		"--onefile",
		"--windowed",
		"--name", s.PackageName,
		"--add-data", srcName + platform.DataSeparator(s.GOOS) + srcName,
	}
	if s.PackageOutputDir != "" {
		args = append(args, "--distpath", s.PackageOutputDir)
	}
	if s.PackageIcon != "" && fileExists(s.PackageIcon) {
		args = append(args, "--icon", s.PackageIcon)
	}
	return append(args, relTo(s.ProjectDir, s.EntrySource))
}

// Package runs the tool inside the project directory.
func (p *Packager) Package(ctx context.Context) error {
	tool, err := p.Tool()
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("locate packaging tool").
			WithResource(p.settings.PackageTool).
			WithSuggestion("Install it into the environment: "+p.settings.EnvPython()+" -m pip install pyinstaller").
			WithSuggestion("Or set packaging.tool in vivi.cue").
			Wrap(err).
			BuildError()
	}

	var stderr strings.Builder
	cmd := process.Command{
		Path:   tool,
		Args:   p.Args(),
		Dir:    p.settings.ProjectDir,
		Stdout: p.out,
		Stderr: io.MultiWriter(p.out, &stderr),
	}
	result := p.runner.Run(ctx, cmd)
	if result.Success() {
		return nil
	}

	cause := result.Error
	if cause == nil {
		cause = fmt.Errorf("exited with code %d", result.ExitCode)
	}
	if tail := lastLines(stderr.String(), 5); tail != "" {
		cause = fmt.Errorf("%w\n%s", cause, tail)
	}
	return issue.NewErrorContext().
		WithOperation("package application").
		WithResource(cmd.String()).
		WithSuggestion("Run with --verbose to see the full tool output").
		Wrap(fmt.Errorf("%w: %w", ErrPackagingFailed, cause)).
		BuildError()
}

func relTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
