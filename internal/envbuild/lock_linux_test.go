// SPDX-License-Identifier: MPL-2.0

//go:build linux

package envbuild

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vivi-desktop/vivi/internal/process"
	"github.com/vivi-desktop/vivi/internal/testutil"
)

func TestBuildLockExcludes(t *testing.T) {
	t.Parallel()

	envDir := t.TempDir() + "/venv"
	first, err := acquireBuildLock(envDir)
	if err != nil {
		t.Fatal(err)
	}

	acquired := make(chan struct{})
	go func() {
		second, err := acquireBuildLock(envDir)
		if err == nil {
			second.Release()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(100 * time.Millisecond):
	}

	first.Release()
	first.Release()

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("second lock not acquired after release")
	}
}

func TestConcurrentEnsureCreatesOnce(t *testing.T) {
	t.Parallel()

	s := newSettings(t, "/usr/bin/python3")
	testutil.MustWriteFile(t, s.ManifestPath, "mss\n")

	var venvCalls atomic.Int32
	runner := &testutil.FakeRunner{Respond: func(cmd process.Command) *process.Result {
		if strings.Join(cmd.Args[:2], " ") == "-m venv" {
			venvCalls.Add(1)
			time.Sleep(50 * time.Millisecond)
			if err := os.MkdirAll(cmd.Args[2], 0o755); err != nil {
				return process.NewErrorResult(1, err)
			}
		}
		return process.NewSuccessResult()
	}}

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for range 4 {
		wg.Go(func() {
			_, err := New(s, runner).Ensure(t.Context())
			errs <- err
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Ensure() error = %v", err)
		}
	}
	if got := venvCalls.Load(); got != 1 {
		t.Errorf("venv created %d times, want 1", got)
	}
}
