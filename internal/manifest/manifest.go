// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// KindRequirements is a pip requirements file.
	KindRequirements Kind = "requirements"
	// KindPyproject is a PEP 621 pyproject.toml.
	KindPyproject Kind = "pyproject"

	pyprojectFileName = "pyproject.toml"
	maxIncludeDepth   = 8
)

var (
	// ErrManifestNotFound is returned when the manifest file does not exist.
	ErrManifestNotFound = errors.New("manifest not found")

	nameSeparators = regexp.MustCompile(`[-_.]+`)
)

type (
	// Kind identifies the manifest format.
	Kind string

	// Requirement is one dependency line.
	Requirement struct {
		// Name is the PEP 503 normalized distribution name.
		Name string
		// Spec is the requirement as written, including version specifiers.
		Spec string
	}

	// Manifest is a parsed dependency manifest.
	Manifest struct {
		Path         string
		Kind         Kind
		Requirements []Requirement
	}

	pyproject struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
	}
)

// KindOf infers the manifest kind from its file name.
func KindOf(path string) Kind {
	if strings.EqualFold(filepath.Base(path), pyprojectFileName) {
		return KindPyproject
	}
	return KindRequirements
}

// Load reads the manifest at path.
func Load(path string) (*Manifest, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	m := &Manifest{Path: path, Kind: KindOf(path)}

	var err error
	switch m.Kind {
	case KindPyproject:
		m.Requirements, err = readPyproject(path)
	default:
		m.Requirements, err = readRequirements(path, 0)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Names returns the normalized requirement names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Requirements))
	for _, r := range m.Requirements {
		names = append(names, r.Name)
	}
	return names
}

// InstallArgs returns the pip install arguments that install the manifest in a
// single invocation.
func (m *Manifest) InstallArgs() []string {
	if m.Kind == KindRequirements {
		return []string{"-r", m.Path}
	}
	args := make([]string, 0, len(m.Requirements))
	for _, r := range m.Requirements {
		args = append(args, r.Spec)
	}
	return args
}

// NormalizeName applies PEP 503 normalization: lowercase with runs of "-", "_"
// and "." collapsed to "-".
func NormalizeName(name string) string {
	return strings.ToLower(nameSeparators.ReplaceAllString(strings.TrimSpace(name), "-"))
}

// ParseRequirement extracts the distribution name from a requirement specifier.
// It returns false for lines that name no distribution.
func ParseRequirement(spec string) (Requirement, bool) {
	spec = strings.TrimSpace(spec)
	end := strings.IndexAny(spec, "[<>=!~;@ \t(")
	name := spec
	if end >= 0 {
		name = spec[:end]
	}
	if name == "" {
		return Requirement{}, false
	}
	return Requirement{Name: NormalizeName(name), Spec: spec}, true
}

func readRequirements(path string, depth int) ([]Requirement, error) {
	if depth > maxIncludeDepth {
		return nil, fmt.Errorf("%s: requirement includes nested deeper than %d", path, maxIncludeDepth)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var reqs []Requirement
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		if include, ok := includeTarget(line); ok {
			if !filepath.IsAbs(include) {
				include = filepath.Join(filepath.Dir(path), include)
			}
			nested, err := readRequirements(include, depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			reqs = append(reqs, nested...)
			continue
		}

		// Other pip options (--index-url, -e, -c ...) name no distribution we can verify.
		if strings.HasPrefix(line, "-") {
			continue
		}

		if r, ok := ParseRequirement(line); ok {
			reqs = append(reqs, r)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}
	return reqs, nil
}

func readPyproject(path string) ([]Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	reqs := make([]Requirement, 0, len(doc.Project.Dependencies))
	for _, dep := range doc.Project.Dependencies {
		if r, ok := ParseRequirement(dep); ok {
			reqs = append(reqs, r)
		}
	}
	return reqs, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "#"); i == 0 {
		return ""
	} else if i > 0 && (line[i-1] == ' ' || line[i-1] == '\t') {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func includeTarget(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "--requirement")
	if ok {
		if rest == "" || (rest[0] != '=' && rest[0] != ' ' && rest[0] != '\t') {
			return "", false
		}
	} else if rest, ok = strings.CutPrefix(line, "-r"); !ok {
		return "", false
	}
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "="))
	return rest, rest != ""
}
