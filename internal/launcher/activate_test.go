// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/vivi-desktop/vivi/internal/config"
)

func lookupEnv(environ []string, key string) (string, bool) {
	for i := len(environ) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(environ[i], "=")
		if ok && k == key {
			return v, true
		}
	}
	return "", false
}

func TestActivate(t *testing.T) {
	t.Parallel()

	s := &config.Settings{EnvDir: "/proj/venv", GOOS: "linux"}
	base := []string{"HOME=/home/u", "PATH=/usr/bin:/bin", "PYTHONHOME=/opt/py", "VIRTUAL_ENV=/old"}

	got := Activate(s, base)

	if v, _ := lookupEnv(got, "PATH"); v != filepath.Join("/proj/venv", "bin")+":/usr/bin:/bin" {
		t.Errorf("PATH = %q", v)
	}
	if v, _ := lookupEnv(got, "VIRTUAL_ENV"); v != "/proj/venv" {
		t.Errorf("VIRTUAL_ENV = %q", v)
	}
	if _, ok := lookupEnv(got, "PYTHONHOME"); ok {
		t.Error("PYTHONHOME not removed")
	}
	if v, _ := lookupEnv(got, "HOME"); v != "/home/u" {
		t.Errorf("HOME = %q", v)
	}
	if base[1] != "PATH=/usr/bin:/bin" {
		t.Error("input environ modified")
	}
}

func TestActivateWindows(t *testing.T) {
	t.Parallel()

	s := &config.Settings{EnvDir: `C:\proj\venv`, GOOS: "windows"}
	got := Activate(s, []string{`Path=C:\Windows`, `PythonHome=C:\py`})

	v, ok := lookupEnv(got, "Path")
	if !ok || !strings.HasSuffix(v, `;C:\Windows`) || !strings.Contains(v, "Scripts") {
		t.Errorf("Path = %q", v)
	}
	if _, ok := lookupEnv(got, "PythonHome"); ok {
		t.Error("PythonHome not removed case-insensitively")
	}
}

func TestActivateWithoutPath(t *testing.T) {
	t.Parallel()

	s := &config.Settings{EnvDir: "/proj/venv", GOOS: "linux"}
	got := Activate(s, nil)
	if v, _ := lookupEnv(got, "PATH"); v != filepath.Join("/proj/venv", "bin") {
		t.Errorf("PATH = %q", v)
	}
}
