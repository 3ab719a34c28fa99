// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			l, err := New(Options{Writer: &buf, Verbose: tt.verbose})
			if err != nil {
				t.Fatal(err)
			}
			defer l.Close()

			l.Debug("transition", "state", "CHECK_ENV")
			l.Warn("careful")

			out := buf.String()
			if got := strings.Contains(out, "transition"); got != tt.wantDebug {
				t.Errorf("debug record present = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "careful") {
				t.Errorf("warn record missing:\n%s", out)
			}
		})
	}
}

func TestNewLogFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "vivi.log")
	var buf bytes.Buffer
	l, err := New(Options{Writer: &buf, File: path})
	if err != nil {
		t.Fatal(err)
	}

	l.Debug("building environment", "dir", "venv")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(buf.String(), "building environment") {
		t.Error("debug record leaked to quiet terminal")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("log file is not JSON: %v\n%s", err, data)
	}
	if rec["msg"] != "building environment" || rec["dir"] != "venv" {
		t.Errorf("record = %v", rec)
	}
}

func TestCloseNil(t *testing.T) {
	t.Parallel()

	var l *Logger
	if err := l.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
}

func TestSetVerbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(Options{Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	l.Debug("before")
	l.SetVerbose(true)
	l.Debug("after")

	out := buf.String()
	if strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Errorf("output = %q", out)
	}
}
