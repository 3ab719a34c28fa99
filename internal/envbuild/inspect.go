// SPDX-License-Identifier: MPL-2.0

package envbuild

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/vivi-desktop/vivi/internal/issue"
	"github.com/vivi-desktop/vivi/internal/manifest"
	"github.com/vivi-desktop/vivi/internal/process"
)

// ErrPackagesMissing is returned by Verification.Err when manifest entries are not installed.
var ErrPackagesMissing = errors.New("manifest packages not installed")

type (
	// Package is one distribution installed in the environment.
	Package struct {
		Name    string `json:"name" yaml:"name"`
		Version string `json:"version" yaml:"version"`
	}

	// Verification compares the manifest against the installed packages.
	Verification struct {
		Manifest  *manifest.Manifest
		Installed []Package
		// Missing holds normalized manifest names with no installed match.
		Missing []string
	}
)

// OK reports whether every manifest requirement is installed.
func (v *Verification) OK() bool { return len(v.Missing) == 0 }

// Err returns nil when OK, otherwise an error naming the missing packages.
func (v *Verification) Err() error {
	if v.OK() {
		return nil
	}
	return issue.NewErrorContext().
		WithOperation("verify installed packages").
		WithResource(v.Manifest.Path).
		WithSuggestion("Delete the environment and run 'vivi setup' again; existing environments are never updated").
		Wrap(fmt.Errorf("%w: %s", ErrPackagesMissing, strings.Join(v.Missing, ", "))).
		BuildError()
}

// Packages lists the distributions installed in the environment, sorted by name.
func (b *Builder) Packages(ctx context.Context) ([]Package, error) {
	if err := b.requireEnvironment("list installed packages"); err != nil {
		return nil, err
	}

	cmd := process.Command{
		Path: b.settings.EnvPython(),
		Args: []string{"-m", "pip", "list", "--format=json", "--disable-pip-version-check"},
		Dir:  b.settings.ProjectDir,
	}
	result := b.runner.Capture(ctx, cmd)
	if !result.Success() {
		cause := result.Error
		if cause == nil {
			cause = fmt.Errorf("exited with code %d: %s", result.ExitCode, result.ErrOutput)
		}
		return nil, issue.WrapWithContext(fmt.Errorf("%s: %w", cmd.String(), cause), "list installed packages", b.settings.EnvDir)
	}

	var pkgs []Package
	if err := json.Unmarshal([]byte(result.Output), &pkgs); err != nil {
		return nil, fmt.Errorf("failed to parse pip list output: %w", err)
	}
	slices.SortFunc(pkgs, func(a, b Package) int {
		return cmp.Compare(manifest.NormalizeName(a.Name), manifest.NormalizeName(b.Name))
	})
	return pkgs, nil
}

// Verify checks that every manifest requirement is installed. Versions are not compared.
func (b *Builder) Verify(ctx context.Context) (*Verification, error) {
	m, err := manifest.Load(b.settings.ManifestPath)
	if err != nil {
		return nil, issue.WrapWithContext(err, "read dependency manifest", b.settings.ManifestPath)
	}

	pkgs, err := b.Packages(ctx)
	if err != nil {
		return nil, err
	}

	installed := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		installed[manifest.NormalizeName(p.Name)] = true
	}

	v := &Verification{Manifest: m, Installed: pkgs}
	for _, name := range m.Names() {
		if !installed[name] && !slices.Contains(v.Missing, name) {
			v.Missing = append(v.Missing, name)
		}
	}
	return v, nil
}
