// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"strings"

	"github.com/vivi-desktop/vivi/internal/config"
	"github.com/vivi-desktop/vivi/pkg/platform"
)

// Activate returns environ modified the way the venv activation scripts do it:
// VIRTUAL_ENV points at the environment, its executables directory leads PATH
// and PYTHONHOME is removed. environ itself is not modified.
func Activate(s *config.Settings, environ []string) []string {
	windows := s.GOOS == platform.Windows
	sameKey := func(a, b string) bool {
		if windows {
			return strings.EqualFold(a, b)
		}
		return a == b
	}

	listSep := ":"
	if windows {
		listSep = ";"
	}

	binDir := s.EnvBinDir()
	out := make([]string, 0, len(environ)+2)
	pathSet := false

	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case sameKey(key, "PYTHONHOME"), sameKey(key, "VIRTUAL_ENV"):
			continue
		case sameKey(key, "PATH"):
			if pathSet {
				continue
			}
			pathSet = true
			if value == "" {
				out = append(out, key+"="+binDir)
			} else {
				out = append(out, key+"="+binDir+listSep+value)
			}
		default:
			out = append(out, kv)
		}
	}

	if !pathSet {
		out = append(out, "PATH="+binDir)
	}
	return append(out, "VIRTUAL_ENV="+s.EnvDir)
}
