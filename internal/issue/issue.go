// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	RuntimeNotFoundId Id = iota + 1
	EnvironmentNotFoundId
	EnvironmentBuildFailedId
	ManifestNotFoundId
	EntryPointNotFoundId
	ApplicationFailedId
	ConfigLoadFailedId
	PackagerNotFoundId
	PackagingFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	runtimeNotFoundIssue = &Issue{
		id: RuntimeNotFoundId,
		mdMsg: `
# Python was not found!

Vivi needs a Python 3 interpreter on your PATH to build its environment.

## Runtimes we look for (in order):
- python3
- python
- py (Windows launcher)

## Things you can try:
- Install Python 3.8 or newer and make sure it is on your PATH
- On Windows, tick "Add python.exe to PATH" in the installer
- Point vivi at a specific interpreter:
~~~cue
runtime: candidates: ["/usr/local/bin/python3.12"]
~~~`,
		extLinks: []HttpLink{"https://www.python.org/downloads/"},
	}

	environmentNotFoundIssue = &Issue{
		id: EnvironmentNotFoundId,
		mdMsg: `
# Virtual environment not found!

The isolated environment has not been built yet.

## Things you can try:
- Build it first:
~~~
$ vivi setup
~~~

- Or let the launcher build it on demand:
~~~
$ vivi run --variant unix
~~~`,
	}

	environmentBuildFailedIssue = &Issue{
		id: EnvironmentBuildFailedId,
		mdMsg: `
# Failed to build the virtual environment!

Creating the environment or installing its dependencies failed.

## Things you can try:
- Check your network connection (pip downloads packages)
- Make sure the venv module is available (Debian/Ubuntu: ` + "`apt install python3-venv`" + `)
- A half-built environment is **not** cleaned up automatically. Delete it and retry:
~~~
$ rm -rf venv
$ vivi setup
~~~`,
	}

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# Dependency manifest not found!

The dependency manifest (requirements.txt or pyproject.toml) is missing.

## Things you can try:
- Run vivi from the project root
- Pass the project location explicitly:
~~~
$ vivi --project-dir /path/to/vivi setup
~~~`,
	}

	entryPointNotFoundIssue = &Issue{
		id: EntryPointNotFoundId,
		mdMsg: `
# Application source not found!

The entry point (src/main.py) does not exist in the project directory.
You are probably in the wrong directory.

## Things you can try:
- Change to the directory that contains the src folder
- Pass the project location explicitly:
~~~
$ vivi --project-dir /path/to/vivi run
~~~`,
	}

	applicationFailedIssue = &Issue{
		id: ApplicationFailedId,
		mdMsg: `
# Vivi exited with an error!

The application returned a non-zero exit code.

## Things you can try:
- Read the traceback printed above
- Verify the environment has every dependency:
~~~
$ vivi env verify
~~~

- Rebuild the environment if packages are broken (delete the venv directory, then run ` + "`vivi setup`" + `)`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The vivi.cue file could not be loaded.

## Things you can try:
- Check the file for CUE syntax errors
- Show the effective configuration:
~~~
$ vivi config show
~~~

- Regenerate a default file:
~~~
$ vivi config init
~~~`,
	}

	packagerNotFoundIssue = &Issue{
		id: PackagerNotFoundId,
		mdMsg: `
# PyInstaller not found!

Packaging needs PyInstaller, either inside the virtual environment or on PATH.

## Things you can try:
~~~
$ venv/bin/python -m pip install pyinstaller
~~~`,
		extLinks: []HttpLink{"https://pyinstaller.org/"},
	}

	packagingFailedIssue = &Issue{
		id: PackagingFailedId,
		mdMsg: `
# Packaging failed!

PyInstaller exited with an error; its output is shown above.

## Things you can try:
- Run the build again with --verbose
- Remove the build and dist directories and retry`,
	}

	issues = map[Id]*Issue{
		runtimeNotFoundIssue.Id():        runtimeNotFoundIssue,
		environmentNotFoundIssue.Id():    environmentNotFoundIssue,
		environmentBuildFailedIssue.Id(): environmentBuildFailedIssue,
		manifestNotFoundIssue.Id():       manifestNotFoundIssue,
		entryPointNotFoundIssue.Id():     entryPointNotFoundIssue,
		applicationFailedIssue.Id():      applicationFailedIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		packagerNotFoundIssue.Id():       packagerNotFoundIssue,
		packagingFailedIssue.Id():        packagingFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
