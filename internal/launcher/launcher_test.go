// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/vivi-desktop/vivi/internal/config"
	"github.com/vivi-desktop/vivi/internal/envbuild"
	"github.com/vivi-desktop/vivi/internal/issue"
	"github.com/vivi-desktop/vivi/internal/process"
	"github.com/vivi-desktop/vivi/internal/testutil"
)

type fakeEnsurer struct {
	calls int
	err   error
	dir   string
}

func (f *fakeEnsurer) Ensure(context.Context) (*envbuild.Outcome, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, err
	}
	return &envbuild.Outcome{Created: true, EnvDir: f.dir}, nil
}

type fixture struct {
	settings *config.Settings
	runner   *testutil.FakeRunner
	states   []State
	stdout   bytes.Buffer
	stderr   bytes.Buffer
}

func newFixture(t *testing.T, withEnv, withSource bool) *fixture {
	t.Helper()
	s, err := config.Resolve(config.DefaultConfig(), config.ResolveOptions{ProjectDir: t.TempDir(), GOOS: "linux"})
	if err != nil {
		t.Fatal(err)
	}
	if withEnv {
		testutil.MustMkdirAll(t, s.EnvBinDir(), 0o755)
	}
	if withSource {
		testutil.MustWriteFile(t, s.EntrySource, "print('hi')\n")
	}
	return &fixture{settings: s, runner: &testutil.FakeRunner{}}
}

func (f *fixture) launcher(p Policy, stdin string, interactive bool, opts ...Option) *Launcher {
	base := []Option{
		WithStdio(strings.NewReader(stdin), &f.stdout, &f.stderr),
		WithEnviron(func() []string { return []string{"PATH=/usr/bin", "PYTHONHOME=/x"} }),
		WithInteractive(func() bool { return interactive }),
		WithStateHook(func(_, to State) { f.states = append(f.states, to) }),
	}
	return New(f.settings, p, f.runner, append(base, opts...)...)
}

func TestLaunchSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true, true)
	res, err := f.launcher(WindowsPolicy(), "", true).Launch(t.Context())
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if res.State != StateSuccess || res.ExitCode != 0 {
		t.Errorf("result = %+v", res)
	}

	want := []State{StateCheckEnv, StateCheckSource, StateActivate, StateRun, StateSuccess}
	if !slices.Equal(f.states, want) {
		t.Errorf("states = %v, want %v", f.states, want)
	}

	calls := f.runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %v", calls)
	}
	cmd := calls[0]
	if cmd.Path != f.settings.EnvPython() || !slices.Equal(cmd.Args, []string{"-m", "src.main"}) {
		t.Errorf("command = %s", cmd)
	}
	if cmd.Dir != f.settings.ProjectDir {
		t.Errorf("Dir = %q", cmd.Dir)
	}
	if v, _ := lookupEnv(cmd.Env, "VIRTUAL_ENV"); v != f.settings.EnvDir {
		t.Errorf("VIRTUAL_ENV = %q", v)
	}
	if _, ok := lookupEnv(cmd.Env, "PYTHONHOME"); ok {
		t.Error("PYTHONHOME leaked into application environment")
	}
}

func TestLaunchWindowsMissingSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true, false)
	res, err := f.launcher(WindowsPolicy(), "", false).Launch(t.Context())
	if !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("error = %v, want ErrSourceMissing", err)
	}
	if ExitCodeOf(err) != 1 || res.ExitCode != 1 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
	if slices.Contains(f.states, StateActivate) {
		t.Errorf("activation attempted: %v", f.states)
	}
	if len(f.runner.Calls()) != 0 {
		t.Errorf("runner invoked: %v", f.runner.Calls())
	}
}

func TestLaunchWindowsMissingEnv(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false, true)
	ensurer := &fakeEnsurer{dir: f.settings.EnvDir}
	_, err := f.launcher(WindowsPolicy(), "", false, WithEnsurer(ensurer)).Launch(t.Context())
	if !errors.Is(err, envbuild.ErrEnvironmentMissing) {
		t.Fatalf("error = %v, want ErrEnvironmentMissing", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !strings.Contains(ae.Format(false), "vivi setup") {
		t.Errorf("missing setup hint: %v", err)
	}
	if ensurer.calls != 0 {
		t.Errorf("ensurer called %d times under fail policy", ensurer.calls)
	}
	if f.states[len(f.states)-1] != StateFailure {
		t.Errorf("states = %v", f.states)
	}
}

func TestLaunchUnixBuildsMissingEnv(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false, false)
	ensurer := &fakeEnsurer{dir: f.settings.EnvDir}
	res, err := f.launcher(UnixPolicy(), "", false, WithEnsurer(ensurer)).Launch(t.Context())
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if ensurer.calls != 1 || res.State != StateSuccess {
		t.Errorf("ensurer calls = %d, state = %s", ensurer.calls, res.State)
	}
}

func TestLaunchBuildFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false, true)
	ensurer := &fakeEnsurer{err: errors.New("no network")}
	_, err := f.launcher(UnixPolicy(), "", false, WithEnsurer(ensurer)).Launch(t.Context())
	if !errors.Is(err, envbuild.ErrBuildFailed) {
		t.Fatalf("error = %v, want ErrBuildFailed", err)
	}
	if len(f.runner.Calls()) != 0 {
		t.Error("application launched after failed build")
	}
}

func TestLaunchApplicationExitCodePropagates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true, true)
	f.runner.Respond = func(process.Command) *process.Result { return process.NewExitCodeResult(3) }

	res, err := f.launcher(UnixPolicy(), "", false).Launch(t.Context())
	var af *ApplicationFailure
	if !errors.As(err, &af) || af.ExitCode != 3 {
		t.Fatalf("error = %v, want ApplicationFailure(3)", err)
	}
	if !errors.Is(err, ErrApplicationFailed) {
		t.Error("ApplicationFailure does not match ErrApplicationFailed")
	}
	if res.ExitCode != 3 || ExitCodeOf(err) != 3 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
	if res.Reported {
		t.Error("fail-fast launch should not report")
	}
}

func TestLaunchStartFailureExitsOne(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true, true)
	f.runner.Respond = func(process.Command) *process.Result {
		return process.NewErrorResult(1, os.ErrNotExist)
	}

	res, err := f.launcher(UnixPolicy(), "", false).Launch(t.Context())
	if !errors.Is(err, os.ErrNotExist) || res.ExitCode != 1 {
		t.Errorf("err = %v, exit = %d", err, res.ExitCode)
	}
}

func TestLaunchPauseForAcknowledgment(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true, true)
	f.runner.Respond = func(process.Command) *process.Result { return process.NewExitCodeResult(2) }

	res, err := f.launcher(WindowsPolicy(), "\n", true).Launch(t.Context())
	if err == nil {
		t.Fatal("expected failure")
	}
	if !res.Reported || res.Policy.Exit != ExitPause {
		t.Errorf("result = %+v", res)
	}
	out := f.stderr.String()
	if !strings.Contains(out, "application exited with code 2") || !strings.Contains(out, PausePrompt) {
		t.Errorf("stderr = %q", out)
	}
	if strings.Index(out, "exited with code") > strings.Index(out, PausePrompt) {
		t.Error("diagnostic must precede the prompt")
	}
}

func TestLaunchPauseReleasedByEOF(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false, true)
	res, err := f.launcher(WindowsPolicy(), "", true).Launch(t.Context())
	if err == nil || !res.Reported {
		t.Errorf("err = %v, result = %+v", err, res)
	}
}

func TestLaunchPauseDegradesWithoutTerminal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false, true)
	res, err := f.launcher(WindowsPolicy(), "", false).Launch(t.Context())
	if err == nil {
		t.Fatal("expected failure")
	}
	if res.Policy.Exit != ExitFailFast || res.Reported {
		t.Errorf("result = %+v", res)
	}
	if strings.Contains(f.stderr.String(), PausePrompt) {
		t.Error("prompt printed without a terminal")
	}
}

func TestExitCodeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{&ApplicationFailure{ExitCode: 42}, 42},
		{&ApplicationFailure{ExitCode: 0}, 1},
	}
	for _, tt := range tests {
		if got := ExitCodeOf(tt.err); got != tt.want {
			t.Errorf("ExitCodeOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
