// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/vivi-desktop/vivi/internal/config"
	"github.com/vivi-desktop/vivi/internal/logging"
	"github.com/vivi-desktop/vivi/internal/probe"
	"github.com/vivi-desktop/vivi/internal/process"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer; every command handler receives it.
	App struct {
		Config ConfigProvider
		Prober RuntimeProber
		Runner process.Runner

		stdin   io.Reader
		stdout  io.Writer
		stderr  io.Writer
		getenv  func(string) string
		environ func() []string
		getwd   func() (string, error)
		goos    string

		flags  rootFlags
		logger *logging.Logger
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		Prober  RuntimeProber
		Runner  process.Runner
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
		Getenv  func(string) string
		Environ func() []string
		Getwd   func() (string, error)
		GOOS    string
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// RuntimeProber locates the Python runtime.
	RuntimeProber interface {
		Probe(ctx context.Context, candidates []string) (*probe.Report, error)
	}

	// rootFlags holds the persistent flag values.
	rootFlags struct {
		configPath string
		projectDir string
		logFile    string
		verbose    bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runner == nil {
		deps.Runner = process.NewExecRunner()
	}
	if deps.GOOS == "" {
		deps.GOOS = runtime.GOOS
	}
	if deps.Prober == nil {
		deps.Prober = &probe.Prober{Runner: deps.Runner, GOOS: deps.GOOS}
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.Environ == nil {
		deps.Environ = os.Environ
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}

	return &App{
		Config:  deps.Config,
		Prober:  deps.Prober,
		Runner:  deps.Runner,
		stdin:   deps.Stdin,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
		getenv:  deps.Getenv,
		environ: deps.Environ,
		getwd:   deps.Getwd,
		goos:    deps.GOOS,
	}, nil
}

// projectDir returns --project-dir or the working directory.
func (a *App) projectDir() (string, error) {
	if a.flags.projectDir != "" {
		return a.flags.projectDir, nil
	}
	wd, err := a.getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}
	return wd, nil
}

func (a *App) loadOptions() (config.LoadOptions, error) {
	dir, err := a.projectDir()
	if err != nil {
		return config.LoadOptions{}, err
	}
	return config.LoadOptions{ConfigFilePath: a.flags.configPath, ProjectDir: dir}, nil
}

// loadSettings loads the configuration and resolves it against the project directory.
func (a *App) loadSettings(ctx context.Context) (*config.Config, *config.Settings, error) {
	opts, err := a.loadOptions()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := a.Config.Load(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	// Apply verbose from config if not set via flag
	if cfg.UI.Verbose && !a.flags.verbose {
		a.flags.verbose = true
		if a.logger != nil {
			a.logger.SetVerbose(true)
		}
	}

	settings, err := config.Resolve(cfg, config.ResolveOptions{
		ProjectDir: opts.ProjectDir,
		Getenv:     a.getenv,
		GOOS:       a.goos,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, settings, nil
}

func (a *App) verbose() bool { return a.flags.verbose }

// initLogging installs the process-wide logger once the flags are parsed.
func (a *App) initLogging() error {
	if a.logger != nil {
		return nil
	}
	l, err := logging.Setup(logging.Options{
		Writer:  a.stderr,
		Verbose: a.flags.verbose,
		File:    a.flags.logFile,
	})
	if err != nil {
		return err
	}
	a.logger = l
	return nil
}

// Close releases resources held by the App.
func (a *App) Close() error {
	return a.logger.Close()
}
