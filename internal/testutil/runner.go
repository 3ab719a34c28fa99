// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"sync"

	"github.com/vivi-desktop/vivi/internal/process"
)

// FakeRunner records every command it receives and answers with Respond.
// A nil Respond makes every command succeed.
type FakeRunner struct {
	Respond func(cmd process.Command) *process.Result

	mu    sync.Mutex
	calls []process.Command
}

// Run implements process.Runner.
func (f *FakeRunner) Run(_ context.Context, cmd process.Command) *process.Result {
	return f.record(cmd)
}

// Capture implements process.Runner.
func (f *FakeRunner) Capture(_ context.Context, cmd process.Command) *process.Result {
	return f.record(cmd)
}

// Calls returns a copy of the recorded commands in invocation order.
func (f *FakeRunner) Calls() []process.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]process.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeRunner) record(cmd process.Command) *process.Result {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	if f.Respond == nil {
		return process.NewSuccessResult()
	}
	return f.Respond(cmd)
}
