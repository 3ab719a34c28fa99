// SPDX-License-Identifier: MPL-2.0

package packager

import (
	"errors"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/vivi-desktop/vivi/internal/config"
	"github.com/vivi-desktop/vivi/internal/process"
	"github.com/vivi-desktop/vivi/internal/testutil"
)

func settingsFor(t *testing.T, goos string) *config.Settings {
	t.Helper()
	s, err := config.Resolve(config.DefaultConfig(), config.ResolveOptions{ProjectDir: t.TempDir(), GOOS: goos})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func notFound(string) (string, error) { return "", exec.ErrNotFound }

func TestArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos    string
		withIco bool
		want    []string
	}{
		{"linux", false, []string{"--onefile", "--windowed", "--name", "Vivi", "--add-data", "src:src"}},
		{"windows", true, []string{"--onefile", "--windowed", "--name", "Vivi", "--add-data", "src;src"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			t.Parallel()
			s := settingsFor(t, tt.goos)
			if tt.withIco {
				testutil.MustWriteFile(t, s.PackageIcon, "ico")
			}

			args := New(s, nil).Args()
			if !slices.Equal(args[:6], tt.want) {
				t.Errorf("Args()[:6] = %v, want %v", args[:6], tt.want)
			}
			if got := args[len(args)-1]; got != filepath.Join("src", "main.py") {
				t.Errorf("script = %q", got)
			}
			if hasIcon := slices.Contains(args, "--icon"); hasIcon != tt.withIco {
				t.Errorf("--icon present = %v, want %v", hasIcon, tt.withIco)
			}
			i := slices.Index(args, "--distpath")
			if i < 0 || args[i+1] != s.PackageOutputDir {
				t.Errorf("--distpath missing: %v", args)
			}
		})
	}
}

func TestToolPrefersEnvironment(t *testing.T) {
	t.Parallel()

	s := settingsFor(t, "linux")
	envTool := filepath.Join(s.EnvBinDir(), "pyinstaller")
	testutil.MustWriteFile(t, envTool, "#!/bin/sh\n")

	p := New(s, nil, WithLookPath(func(string) (string, error) { return "/usr/bin/pyinstaller", nil }))
	got, err := p.Tool()
	if err != nil {
		t.Fatal(err)
	}
	if got != envTool {
		t.Errorf("Tool() = %q, want %q", got, envTool)
	}
}

func TestToolFallsBackToPath(t *testing.T) {
	t.Parallel()

	p := New(settingsFor(t, "linux"), nil, WithLookPath(func(name string) (string, error) {
		return "/usr/local/bin/" + name, nil
	}))
	got, err := p.Tool()
	if err != nil || got != "/usr/local/bin/pyinstaller" {
		t.Errorf("Tool() = %q, %v", got, err)
	}
}

func TestPackageToolMissing(t *testing.T) {
	t.Parallel()

	runner := &testutil.FakeRunner{}
	err := New(settingsFor(t, "linux"), runner, WithLookPath(notFound)).Package(t.Context())
	if !errors.Is(err, ErrPackagerNotFound) {
		t.Fatalf("error = %v, want ErrPackagerNotFound", err)
	}
	if !strings.Contains(err.Error(), "pyinstaller") {
		t.Errorf("error = %v", err)
	}
	if len(runner.Calls()) != 0 {
		t.Error("tool invoked although missing")
	}
}

func TestPackageRunsInProjectDir(t *testing.T) {
	t.Parallel()

	s := settingsFor(t, "linux")
	runner := &testutil.FakeRunner{}
	p := New(s, runner, WithLookPath(func(string) (string, error) { return "/usr/bin/pyinstaller", nil }))

	if err := p.Package(t.Context()); err != nil {
		t.Fatal(err)
	}
	calls := runner.Calls()
	if len(calls) != 1 || calls[0].Dir != s.ProjectDir || calls[0].Path != "/usr/bin/pyinstaller" {
		t.Errorf("calls = %v", calls)
	}
}

func TestPackageFailureCarriesStderr(t *testing.T) {
	t.Parallel()

	runner := &testutil.FakeRunner{Respond: func(cmd process.Command) *process.Result {
		_, _ = cmd.Stderr.Write([]byte("INFO: building\nERROR: script not found\n"))
		return process.NewExitCodeResult(1)
	}}
	p := New(settingsFor(t, "linux"), runner, WithLookPath(func(string) (string, error) { return "/usr/bin/pyinstaller", nil }))

	err := p.Package(t.Context())
	if !errors.Is(err, ErrPackagingFailed) {
		t.Fatalf("error = %v, want ErrPackagingFailed", err)
	}
	if !strings.Contains(err.Error(), "ERROR: script not found") {
		t.Errorf("stderr not captured: %v", err)
	}
}
