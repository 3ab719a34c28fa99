// SPDX-License-Identifier: MPL-2.0

// Package cli contains CLI integration tests using testscript.
//
// Each script gets a fresh project in $WORK and a fake Python runtime on PATH.
// $BINDIR holds only the vivi binary, so `env PATH=$BINDIR` hides the runtime.
package cli

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/vivi-desktop/vivi/internal/testutil"
)

var (
	// binaryPath is the path to the built vivi binary.
	binaryPath string
	// projectRoot is the path to the vivi module root.
	projectRoot string
)

func TestMain(m *testing.M) {
	wd, err := os.Getwd()
	if err != nil {
		panic("failed to get working directory: " + err.Error())
	}

	// Walk up to find go.mod
	projectRoot = wd
	for {
		if _, err := os.Stat(filepath.Join(projectRoot, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(projectRoot)
		if parent == projectRoot {
			panic("could not find project root (go.mod)")
		}
		projectRoot = parent
	}

	binDir, err := os.MkdirTemp("", "vivi-cli-bin")
	if err != nil {
		panic("failed to create bin directory: " + err.Error())
	}

	binaryName := "vivi"
	if runtime.GOOS == "windows" {
		binaryName = "vivi.exe"
	}
	binaryPath = filepath.Join(binDir, binaryName)

	cmd := exec.CommandContext(context.Background(), "go", "build", "-o", binaryPath, ".")
	cmd.Dir = projectRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build vivi: " + err.Error())
	}

	code := m.Run()
	_ = os.RemoveAll(binDir)
	os.Exit(code)
}

// TestCLI runs all testscript tests in the testdata directory.
func TestCLI(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake python runtime requires a POSIX shell")
	}

	testscript.Run(t, testscript.Params{
		Dir:   "testdata",
		Setup: setup,
		// Continue running all tests even if one fails
		ContinueOnError: true,
	})
}

func setup(env *testscript.Env) error {
	fakeBin := filepath.Join(env.WorkDir, ".fakebin")
	if err := os.MkdirAll(fakeBin, 0o755); err != nil {
		return err
	}
	callLog := filepath.Join(env.WorkDir, ".python-calls.log")
	script := testutil.FakePythonScript(testutil.FakePythonOptions{}, callLog)
	if err := os.WriteFile(filepath.Join(fakeBin, "python3"), []byte(script), 0o755); err != nil {
		return err
	}

	binDir := filepath.Dir(binaryPath)
	env.Setenv("BINDIR", binDir)
	env.Setenv("CALLS", callLog)
	env.Setenv("PATH", binDir+string(os.PathListSeparator)+fakeBin+string(os.PathListSeparator)+env.Getenv("PATH"))
	return nil
}
