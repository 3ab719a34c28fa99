// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"PyQt6", "pyqt6"},
		{"python_dateutil", "python-dateutil"},
		{"zope.interface", "zope-interface"},
		{"Foo-._Bar", "foo-bar"},
		{"  requests ", "requests"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRequirement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec   string
		want   string
		wantOK bool
	}{
		{"PyQt6==6.7.0", "pyqt6", true},
		{"requests[socks]>=2.0", "requests", true},
		{"numpy ; python_version >= '3.9'", "numpy", true},
		{"pillow~=10.0", "pillow", true},
		{"mypkg @ https://example.com/mypkg.whl", "mypkg", true},
		{"psutil", "psutil", true},
		{"==1.0", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRequirement(tt.spec)
		if ok != tt.wantOK || got.Name != tt.want {
			t.Errorf("ParseRequirement(%q) = (%q, %v), want (%q, %v)", tt.spec, got.Name, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLoadRequirements(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "base.txt", "psutil>=5\n")
	path := write(t, dir, "requirements.txt", `# GUI
PyQt6==6.7.0
--index-url https://pypi.org/simple

pynput  # input monitor
-r base.txt
-e ./local
Pillow
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Kind != KindRequirements {
		t.Errorf("Kind = %q", m.Kind)
	}

	want := []string{"pyqt6", "pynput", "psutil", "pillow"}
	if got := m.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if got := m.InstallArgs(); !slices.Equal(got, []string{"-r", path}) {
		t.Errorf("InstallArgs() = %v", got)
	}
}

func TestLoadPyproject(t *testing.T) {
	t.Parallel()

	path := write(t, t.TempDir(), "pyproject.toml", `
[project]
name = "vivi"
dependencies = [
  "PyQt6>=6.5",
  "mss",
  "google_generativeai",
]
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Kind != KindPyproject {
		t.Errorf("Kind = %q", m.Kind)
	}
	if got, want := m.Names(), []string{"pyqt6", "mss", "google-generativeai"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if got, want := m.InstallArgs(), []string{"PyQt6>=6.5", "mss", "google_generativeai"}; !slices.Equal(got, want) {
		t.Errorf("InstallArgs() = %v, want %v", got, want)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "requirements.txt")); !errors.Is(err, ErrManifestNotFound) {
		t.Errorf("missing file: err = %v, want ErrManifestNotFound", err)
	}

	broken := write(t, dir, "req-broken.txt", "-r nowhere.txt\n")
	if _, err := Load(broken); !errors.Is(err, ErrManifestNotFound) {
		t.Errorf("missing include: err = %v, want ErrManifestNotFound", err)
	}

	sub := filepath.Join(dir, "bad")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	badToml := write(t, sub, "pyproject.toml", "[project\n")
	if _, err := Load(badToml); err == nil {
		t.Error("invalid toml: expected error")
	}
}

func TestLoadSelfInclude(t *testing.T) {
	t.Parallel()

	path := write(t, t.TempDir(), "requirements.txt", "-r requirements.txt\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for recursive include")
	}
}
