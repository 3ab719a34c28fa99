// SPDX-License-Identifier: MPL-2.0

package platform

import "path/filepath"

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// EnvBinDir returns the directory inside a virtual environment that holds its
// executables for the given GOOS ("Scripts" on Windows, "bin" elsewhere).
func EnvBinDir(envDir, goos string) string {
	if goos == Windows {
		return filepath.Join(envDir, "Scripts")
	}
	return filepath.Join(envDir, "bin")
}

// EnvPython returns the interpreter path inside a virtual environment.
func EnvPython(envDir, goos string) string {
	if goos == Windows {
		return filepath.Join(EnvBinDir(envDir, goos), "python.exe")
	}
	return filepath.Join(EnvBinDir(envDir, goos), "python")
}

// DataSeparator returns the separator PyInstaller expects between source and
// destination in --add-data arguments.
func DataSeparator(goos string) string {
	if goos == Windows {
		return ";"
	}
	return ":"
}
