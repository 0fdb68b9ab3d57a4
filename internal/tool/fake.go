package tool

import (
	"context"
	"sync"
)

// FakeRunner is an in-memory Runner for tests. Handler decides the outcome
// of each call; every command is recorded in Calls.
type FakeRunner struct {
	Handler func(cmd Command) (*Result, error)

	mu    sync.Mutex
	calls []Command
}

// Run records cmd and delegates to Handler. A nil Handler succeeds with no output.
func (f *FakeRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	if f.Handler == nil {
		return &Result{}, nil
	}
	return f.Handler(cmd)
}

// Calls returns a copy of the recorded commands.
func (f *FakeRunner) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.calls))
	copy(out, f.calls)
	return out
}
