// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// FakePythonOptions controls the behavior baked into a fake Python runtime.
type FakePythonOptions struct {
	// Name is the executable name (default "python3").
	Name string
	// VenvFail makes "-m venv" exit 1 without creating anything.
	VenvFail bool
	// PipFail makes "-m pip install" exit 1.
	PipFail bool
	// AppExit is the exit code of "-m <any other module>".
	AppExit int
}

// FakePython is a generated POSIX-shell stand-in for the Python runtime.
//
// "--version" prints a version; "-m venv DIR" creates DIR/bin/python as a copy
// of itself; the env copy records "pip install" names in DIR/installed.txt and
// prints them as JSON for "pip list --format=json"; any other "-m MODULE"
// prints "running MODULE" and exits with AppExit. Every invocation is appended
// to CallLog.
type FakePython struct {
	// Dir is the directory holding the executable; put it on PATH.
	Dir string
	// Path is the executable path.
	Path string
	// CallLog receives one line per invocation: "<argv0> <args...>".
	CallLog string
}

const fakePythonTemplate = `#!/bin/sh
self_dir=$(cd "$(dirname "$0")" && pwd)
env_root=$(dirname "$self_dir")
echo "$0 $*" >> %[1]q
case "$1" in
--version)
	echo "Python 3.12.1"
	exit 0 ;;
-m)
	shift
	mod="$1"
	shift
	case "$mod" in
	venv)
		if [ %[2]q = "1" ]; then
			echo "Error: venv creation failed" >&2
			exit 1
		fi
		dir="$1"
		mkdir -p "$dir/bin" || exit 1
		cp "$0" "$dir/bin/python"
		chmod +x "$dir/bin/python"
		: > "$dir/installed.txt"
		echo "home = $self_dir" > "$dir/pyvenv.cfg"
		exit 0 ;;
	pip)
		sub="$1"
		shift
		case "$sub" in
		install)
			if [ %[3]q = "1" ]; then
				echo "ERROR: Could not find a version that satisfies the requirement" >&2
				exit 1
			fi
			if [ "$1" = "-r" ]; then
				grep -v '^[[:space:]]*#' "$2" | grep -v '^[[:space:]]*$' | sed 's/[<>=!~;[ ].*//' >> "$env_root/installed.txt"
			else
				for p in "$@"; do
					echo "$p" | sed 's/[<>=!~;[ ].*//' >> "$env_root/installed.txt"
				done
			fi
			exit 0 ;;
		list)
			printf '['
			sep=''
			while IFS= read -r name; do
				[ -z "$name" ] && continue
				printf '%%s{"name": "%%s", "version": "1.0.0"}' "$sep" "$name"
				sep=', '
			done < "$env_root/installed.txt"
			printf ']\n'
			exit 0 ;;
		esac ;;
	*)
		echo "running $mod"
		exit %[4]d ;;
	esac ;;
esac
echo "unsupported invocation: $*" >&2
exit 2
`

// WriteFakePython writes a fake Python runtime into a new temp directory.
// Tests using it are skipped on Windows.
func WriteFakePython(t testing.TB, opts FakePythonOptions) *FakePython {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake python runtime requires a POSIX shell")
	}
	if opts.Name == "" {
		opts.Name = "python3"
	}

	dir := t.TempDir()
	callLog := filepath.Join(dir, "calls.log")
	path := filepath.Join(dir, opts.Name)
	if err := os.WriteFile(path, []byte(FakePythonScript(opts, callLog)), 0o755); err != nil {
		t.Fatalf("failed to write fake python: %v", err)
	}
	return &FakePython{Dir: dir, Path: path, CallLog: callLog}
}

// FakePythonScript renders the fake runtime script, logging calls to callLog.
func FakePythonScript(opts FakePythonOptions, callLog string) string {
	return fmt.Sprintf(fakePythonTemplate, callLog, boolFlag(opts.VenvFail), boolFlag(opts.PipFail), opts.AppExit)
}

// Calls returns the recorded invocations.
func (f *FakePython) Calls(t testing.TB) []string {
	t.Helper()
	data, err := os.ReadFile(f.CallLog)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read call log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// CalledWith reports whether any invocation contains fragment.
func (f *FakePython) CalledWith(t testing.TB, fragment string) bool {
	t.Helper()
	for _, call := range f.Calls(t) {
		if strings.Contains(call, fragment) {
			return true
		}
	}
	return false
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
