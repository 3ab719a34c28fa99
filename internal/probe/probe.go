// SPDX-License-Identifier: MPL-2.0

// Package probe reports whether the Python runtime is available and what kind
// of host vivi is running on.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/vivi-desktop/vivi/internal/issue"
	"github.com/vivi-desktop/vivi/internal/process"
	"github.com/vivi-desktop/vivi/pkg/platform"
)

// ErrRuntimeNotFound is returned when no runtime candidate is usable.
var ErrRuntimeNotFound = errors.New("python runtime not found")

type (
	// Report is the outcome of a probe.
	Report struct {
		RuntimeAvailable bool              `json:"runtime_available" yaml:"runtime_available"`
		RuntimePath      string            `json:"runtime_path,omitempty" yaml:"runtime_path,omitempty"`
		RuntimeVersion   string            `json:"runtime_version,omitempty" yaml:"runtime_version,omitempty"`
		Candidates       []string          `json:"candidates" yaml:"candidates"`
		Host             platform.HostKind `json:"host" yaml:"host"`
		GOOS             string            `json:"goos" yaml:"goos"`
	}

	// Prober inspects the host. Zero-value fields fall back to the real system.
	Prober struct {
		LookPath   func(file string) (string, error)
		Runner     process.Runner
		DetectHost func(goos string) platform.HostKind
		GOOS       string
	}
)

// New returns a Prober backed by the real PATH, os/exec and /proc.
func New() *Prober {
	return &Prober{}
}

// Probe resolves the first usable runtime among candidates. The returned
// Report is always populated; the error wraps ErrRuntimeNotFound when no
// candidate answers "--version" successfully.
func (p *Prober) Probe(ctx context.Context, candidates []string) (*Report, error) {
	goos := p.goos()
	report := &Report{
		Candidates: append([]string(nil), candidates...),
		Host:       p.detectHost(goos),
		GOOS:       goos,
	}

	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	runner := p.Runner
	if runner == nil {
		runner = process.NewExecRunner()
	}

	for _, candidate := range candidates {
		path, err := lookPath(candidate)
		if err != nil {
			slog.Debug("runtime candidate not on PATH", "candidate", candidate, "error", err)
			continue
		}

		result := runner.Capture(ctx, process.Command{Path: path, Args: []string{"--version"}})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, fmt.Errorf("probe canceled: %w", ctxErr)
		}
		if !result.Success() {
			slog.Debug("runtime candidate unusable", "path", path, "exit_code", result.ExitCode, "error", result.Error)
			continue
		}

		report.RuntimeAvailable = true
		report.RuntimePath = path
		report.RuntimeVersion = versionLine(result)
		slog.Debug("runtime found", "path", path, "version", report.RuntimeVersion)
		return report, nil
	}

	return report, issue.NewErrorContext().
		WithOperation("locate Python runtime").
		WithResource(strings.Join(candidates, ", ")).
		WithSuggestion("Install Python 3 from https://www.python.org/downloads/ and make sure it is on PATH").
		WithSuggestion("Or set runtime.candidates in vivi.cue to the interpreter you want to use").
		Wrap(ErrRuntimeNotFound).
		BuildError()
}

func (p *Prober) goos() string {
	if p.GOOS != "" {
		return p.GOOS
	}
	return runtime.GOOS
}

func (p *Prober) detectHost(goos string) platform.HostKind {
	if p.DetectHost != nil {
		return p.DetectHost(goos)
	}
	if goos == runtime.GOOS {
		return platform.DetectHost()
	}
	return platform.DetectHostWith(goos, os.ReadFile)
}

// versionLine prefers stdout; Python 2 and some shims print the version on stderr.
func versionLine(r *process.Result) string {
	for _, s := range []string{r.Output, r.ErrOutput} {
		if line := strings.TrimSpace(s); line != "" {
			first, _, _ := strings.Cut(line, "\n")
			return strings.TrimSpace(first)
		}
	}
	return ""
}
