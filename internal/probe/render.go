// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FormatText is the human-readable status report.
	FormatText Format = "text"
	// FormatJSON is an indented JSON document.
	FormatJSON Format = "json"
	// FormatYAML is a YAML document.
	FormatYAML Format = "yaml"
)

// ErrInvalidFormat is returned for an unknown report format.
var ErrInvalidFormat = errors.New("invalid report format")

// Format selects how a Report is rendered.
type Format string

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w %q (valid: text, json, yaml)", ErrInvalidFormat, s)
	}
}

// Write renders r to w in the given format.
func (r *Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return r.writeText(w)
	default:
		return fmt.Errorf("%w %q", ErrInvalidFormat, format)
	}
}

func (r *Report) writeText(w io.Writer) error {
	runtimeLine := "not found (tried " + strings.Join(r.Candidates, ", ") + ")"
	if r.RuntimeAvailable {
		runtimeLine = r.RuntimePath
		if r.RuntimeVersion != "" {
			runtimeLine += " (" + r.RuntimeVersion + ")"
		}
	}
	_, err := fmt.Fprintf(w, "Runtime: %s\nHost:    %s (%s)\n", runtimeLine, r.Host, r.GOOS)
	return err
}
