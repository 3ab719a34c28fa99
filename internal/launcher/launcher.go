// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/vivi-desktop/vivi/internal/config"
	"github.com/vivi-desktop/vivi/internal/envbuild"
	"github.com/vivi-desktop/vivi/internal/issue"
	"github.com/vivi-desktop/vivi/internal/process"
)

// Launch states in the order they are entered.
const (
	StateCheckEnv    State = "CHECK_ENV"
	StateCheckSource State = "CHECK_SOURCE"
	StateActivate    State = "ACTIVATE"
	StateRun         State = "RUN"
	StateSuccess     State = "SUCCESS"
	StateFailure     State = "FAILURE"

	// PausePrompt is printed before waiting for acknowledgment.
	PausePrompt = "Press Enter to continue..."
)

var (
	// ErrSourceMissing is returned when the entry source file does not exist.
	ErrSourceMissing = errors.New("entry point source not found")
	// ErrApplicationFailed is the kind of every non-zero application exit.
	ErrApplicationFailed = errors.New("application exited with an error")
)

type (
	// State is a launch state.
	State string

	// Ensurer builds the environment under MissingEnvBuild.
	Ensurer interface {
		Ensure(ctx context.Context) (*envbuild.Outcome, error)
	}

	// ApplicationFailure carries the exit code of the application process.
	ApplicationFailure struct {
		ExitCode process.ExitCode
	}

	// Result is the outcome of a launch.
	Result struct {
		State    State
		ExitCode process.ExitCode
		// Policy is the effective policy after terminal degradation.
		Policy Policy
		// Reported is set once the failure diagnostic has been printed by the launcher.
		Reported bool
	}

	// Launcher drives one launch.
	Launcher struct {
		settings *config.Settings
		policy   Policy
		runner   process.Runner
		ensurer  Ensurer

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		environ     func() []string
		interactive func() bool
		onState     func(from, to State)
		diagnose    func(error) string
	}

	// Option configures a Launcher.
	Option func(*Launcher)
)

// WithEnsurer sets the builder used under MissingEnvBuild.
func WithEnsurer(e Ensurer) Option { return func(l *Launcher) { l.ensurer = e } }

// WithStdio sets the streams handed to the application and used for the pause prompt.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(l *Launcher) {
		l.stdin = stdin
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithEnviron sets the base environment that activation modifies.
func WithEnviron(environ func() []string) Option { return func(l *Launcher) { l.environ = environ } }

// WithInteractive overrides terminal detection for the pause policy.
func WithInteractive(interactive func() bool) Option {
	return func(l *Launcher) { l.interactive = interactive }
}

// WithStateHook observes every state transition.
func WithStateHook(fn func(from, to State)) Option { return func(l *Launcher) { l.onState = fn } }

// WithDiagnostic sets how a failure is rendered before the pause prompt.
func WithDiagnostic(fn func(error) string) Option { return func(l *Launcher) { l.diagnose = fn } }

// New creates a Launcher. A nil runner uses os/exec.
func New(settings *config.Settings, policy Policy, runner process.Runner, opts ...Option) *Launcher {
	if runner == nil {
		runner = process.NewExecRunner()
	}
	l := &Launcher{
		settings: settings,
		policy:   policy,
		runner:   runner,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		environ:  os.Environ,
		diagnose: defaultDiagnostic,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.interactive == nil {
		l.interactive = func() bool { return isTerminal(l.stdin) }
	}
	return l
}

// Error implements the error interface.
func (e *ApplicationFailure) Error() string {
	return fmt.Sprintf("application exited with code %d", e.ExitCode)
}

// Unwrap returns ErrApplicationFailed for errors.Is() compatibility.
func (e *ApplicationFailure) Unwrap() error { return ErrApplicationFailed }

// ExitCodeOf maps a launch error to the process exit code: the application's
// own code for ApplicationFailure, 1 for anything else, 0 for nil.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var af *ApplicationFailure
	if errors.As(err, &af) && !af.ExitCode.IsSuccess() {
		return int(af.ExitCode)
	}
	return 1
}

// Launch runs the state machine to completion.
func (l *Launcher) Launch(ctx context.Context) (*Result, error) {
	res := &Result{Policy: l.effectivePolicy()}
	var state State
	l.enter(&state, StateCheckEnv, res)

	err := l.step(ctx, &state, res)
	if err == nil {
		l.enter(&state, StateSuccess, res)
		return res, nil
	}

	l.enter(&state, StateFailure, res)
	res.ExitCode = process.ExitCode(ExitCodeOf(err))
	if res.Policy.Exit == ExitPause {
		l.acknowledge(err)
		res.Reported = true
	}
	return res, err
}

func (l *Launcher) step(ctx context.Context, state *State, res *Result) error {
	if err := l.checkEnv(ctx); err != nil {
		return err
	}

	l.enter(state, StateCheckSource, res)
	if err := l.checkSource(res.Policy); err != nil {
		return err
	}

	l.enter(state, StateActivate, res)
	env := Activate(l.settings, l.environ())

	l.enter(state, StateRun, res)
	return l.run(ctx, env)
}

func (l *Launcher) checkEnv(ctx context.Context) error {
	if dirExists(l.settings.EnvDir) {
		return nil
	}

	if l.policy.MissingEnv == MissingEnvFail || l.ensurer == nil {
		return issue.NewErrorContext().
			WithOperation("activate isolated environment").
			WithResource(l.settings.EnvDir).
			WithSuggestion("Run 'vivi setup' first to create the environment").
			Wrap(envbuild.ErrEnvironmentMissing).
			BuildError()
	}

	slog.Debug("isolated environment missing, building", "dir", l.settings.EnvDir)
	if _, err := l.ensurer.Ensure(ctx); err != nil {
		if errors.Is(err, envbuild.ErrBuildFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", envbuild.ErrBuildFailed, err)
	}
	return nil
}

func (l *Launcher) checkSource(p Policy) error {
	if !p.VerifySource {
		return nil
	}
	info, err := os.Stat(l.settings.EntrySource)
	if err == nil && !info.IsDir() {
		return nil
	}
	return issue.NewErrorContext().
		WithOperation("locate application entry point").
		WithResource(l.settings.EntrySource).
		WithSuggestion("Run vivi from the project root or pass --project-dir").
		WithSuggestion("Check app.source in vivi.cue").
		Wrap(ErrSourceMissing).
		BuildError()
}

func (l *Launcher) run(ctx context.Context, env []string) error {
	result := l.runner.Run(ctx, process.Command{
		Path:   l.settings.EnvPython(),
		Args:   []string{"-m", l.settings.EntryModule},
		Dir:    l.settings.ProjectDir,
		Env:    env,
		Stdin:  l.stdin,
		Stdout: l.stdout,
		Stderr: l.stderr,
	})
	if result.Error != nil {
		return issue.NewErrorContext().
			WithOperation("start application").
			WithResource(l.settings.EnvPython()).
			WithSuggestion("The environment may be incomplete; delete it and run 'vivi setup' again").
			Wrap(result.Error).
			BuildError()
	}
	if !result.ExitCode.IsSuccess() {
		return &ApplicationFailure{ExitCode: result.ExitCode}
	}
	return nil
}

// effectivePolicy degrades a pause to fail-fast when nobody can press Enter.
func (l *Launcher) effectivePolicy() Policy {
	p := l.policy
	if p.Exit == ExitPause && !l.interactive() {
		slog.Debug("stdin is not a terminal, failing fast instead of pausing")
		p.Exit = ExitFailFast
	}
	return p
}

func (l *Launcher) enter(state *State, next State, res *Result) {
	from := *state
	*state = next
	res.State = next
	slog.Debug("launch state", "from", from, "to", next)
	if l.onState != nil {
		l.onState(from, next)
	}
}

func (l *Launcher) acknowledge(err error) {
	fmt.Fprintln(l.stderr, l.diagnose(err))
	fmt.Fprintln(l.stderr, PausePrompt)
	// Any line or EOF releases the pause.
	if _, readErr := bufio.NewReader(l.stdin).ReadString('\n'); readErr != nil && !errors.Is(readErr, io.EOF) {
		slog.Debug("pause read failed", "error", readErr)
	}
}

func defaultDiagnostic(err error) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return "Error: " + ae.Format(false)
	}
	return "Error: " + err.Error()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
