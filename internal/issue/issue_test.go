// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

var allIds = []Id{
	RuntimeNotFoundId,
	EnvironmentNotFoundId,
	EnvironmentBuildFailedId,
	ManifestNotFoundId,
	EntryPointNotFoundId,
	ApplicationFailedId,
	ConfigLoadFailedId,
	PackagerNotFoundId,
	PackagingFailedId,
}

// stubRender replaces glamour with an identity renderer for the test.
func stubRender(t *testing.T) {
	t.Helper()
	originalRender := render
	t.Cleanup(func() { render = originalRender })
	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}
}

func TestId_Constants(t *testing.T) {
	seen := make(map[Id]bool)
	for _, id := range allIds {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if RuntimeNotFoundId != 1 {
		t.Errorf("RuntimeNotFoundId = %d, want 1", RuntimeNotFoundId)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{RuntimeNotFoundId, false, "Python was not found"},
		{EnvironmentNotFoundId, false, "vivi setup"},
		{EnvironmentBuildFailedId, false, "not** cleaned up"},
		{ManifestNotFoundId, false, "requirements.txt"},
		{EntryPointNotFoundId, false, "wrong directory"},
		{ApplicationFailedId, false, "non-zero exit code"},
		{ConfigLoadFailedId, false, "vivi.cue"},
		{PackagerNotFoundId, false, "pip install pyinstaller"},
		{PackagingFailedId, false, "Packaging failed"},
		{Id(9999), true, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", issue.Id(), tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}
}

func TestValues(t *testing.T) {
	issues := Values()

	if len(issues) != len(allIds) {
		t.Fatalf("Values() returned %d issues, want %d", len(issues), len(allIds))
	}
	for i, issue := range issues {
		if issue.Id() != allIds[i] {
			t.Errorf("Values()[%d].Id() = %d, want %d (ordered by id)", i, issue.Id(), allIds[i])
		}
	}
}

func TestIssue_ExtLinks_ReturnsClone(t *testing.T) {
	issue := Get(RuntimeNotFoundId)
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("RuntimeNotFound should carry an install link")
	}

	original := links[0]
	links[0] = "modified"
	if issue.ExtLinks()[0] != original {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Render_WithLinks(t *testing.T) {
	stubRender(t)

	testIssue := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test Issue\n\nThis is a test.",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}

	rendered, err := testIssue.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "See also") {
		t.Error("Render() with links should contain 'See also'")
	}
	if !strings.Contains(rendered, "https://external.example.com") {
		t.Error("Render() should list external links")
	}
}

func TestIssue_Render_NoLinks(t *testing.T) {
	stubRender(t)

	testIssue := &Issue{
		id:    Id(9998),
		mdMsg: "# Test Issue\n\nNo links here.",
	}

	rendered, err := testIssue.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if strings.Contains(rendered, "See also") {
		t.Error("Render() without links should not contain 'See also'")
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	// Real glamour rendering: catches malformed markdown in the catalog.
	for _, issue := range Values() {
		rendered, err := issue.Render("dark")
		if err != nil {
			t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
		}
		if strings.TrimSpace(rendered) == "" {
			t.Errorf("Issue %d rendered to empty string", issue.Id())
		}
	}
}
