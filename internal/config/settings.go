// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"github.com/vivi-desktop/vivi/pkg/platform"
)

// Settings is the resolved, absolute-path view of a Config for one project.
// Orchestration steps receive it explicitly and never consult the working
// directory on their own.
type Settings struct {
	ProjectDir string
	GOOS       string

	RuntimeCandidates []string
	// RuntimePath is filled in by the prober once a candidate resolves.
	RuntimePath string

	EnvDir       string
	ManifestPath string

	EntryModule string
	EntrySource string

	Variant   LaunchVariant
	OnFailure FailureMode

	PackageTool      string
	PackageName      string
	PackageIcon      string
	PackageOutputDir string
}

// ResolveOptions carries the inputs Resolve needs besides the config itself.
type ResolveOptions struct {
	ProjectDir string
	// Getenv expands $VAR references in path values; nil means no variables.
	Getenv func(string) string
	// GOOS defaults to runtime.GOOS.
	GOOS string
}

// Resolve expands and anchors every path in cfg against the project directory.
func Resolve(cfg *Config, opts ResolveOptions) (*Settings, error) {
	projectDir, err := filepath.Abs(opts.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	r := resolver{projectDir: projectDir, getenv: getenv}

	s := &Settings{
		ProjectDir:  projectDir,
		GOOS:        goos,
		EntryModule: cfg.App.Module,
		Variant:     cfg.Launch.Variant,
		OnFailure:   cfg.Launch.OnFailure,
		PackageName: cfg.Packaging.Name,
	}

	for _, c := range cfg.Runtime.Candidates {
		resolved, err := r.command(c)
		if err != nil {
			return nil, fmt.Errorf("runtime.candidates: %w", err)
		}
		s.RuntimeCandidates = append(s.RuntimeCandidates, resolved)
	}

	if s.PackageTool, err = r.command(cfg.Packaging.Tool); err != nil {
		return nil, fmt.Errorf("packaging.tool: %w", err)
	}

	paths := []struct {
		key string
		in  string
		out *string
	}{
		{"environment.dir", cfg.Environment.Dir, &s.EnvDir},
		{"environment.manifest", cfg.Environment.Manifest, &s.ManifestPath},
		{"app.source", cfg.App.Source, &s.EntrySource},
		{"packaging.icon", cfg.Packaging.Icon, &s.PackageIcon},
		{"packaging.output_dir", cfg.Packaging.OutputDir, &s.PackageOutputDir},
	}
	for _, p := range paths {
		if p.in == "" {
			continue
		}
		expanded, err := r.expand(p.in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.key, err)
		}
		*p.out = r.anchor(expanded)
	}

	return s, nil
}

// EnvBinDir returns the executables directory of the isolated environment.
func (s *Settings) EnvBinDir() string {
	return platform.EnvBinDir(s.EnvDir, s.GOOS)
}

// EnvPython returns the interpreter inside the isolated environment.
func (s *Settings) EnvPython() string {
	return platform.EnvPython(s.EnvDir, s.GOOS)
}

type resolver struct {
	projectDir string
	getenv     func(string) string
}

func (r resolver) expand(s string) (string, error) {
	if !strings.ContainsAny(s, "$~") {
		return s, nil
	}
	if strings.HasPrefix(s, "~/") {
		if home := r.getenv("HOME"); home != "" {
			s = home + s[1:]
		}
	}
	out, err := shell.Expand(s, r.getenv)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", s, err)
	}
	return out, nil
}

// command expands a program reference. Bare names are left for PATH lookup;
// anything path-like is anchored to the project directory.
func (r resolver) command(c string) (string, error) {
	expanded, err := r.expand(c)
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(expanded, `/\`) {
		return r.anchor(expanded), nil
	}
	return expanded, nil
}

func (r resolver) anchor(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(r.projectDir, p)
}
