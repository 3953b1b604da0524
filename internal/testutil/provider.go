package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/shran-labs/shran/internal/environment"
)

// FakeProvider is a scripted environment.Provider for pipeline and stage
// tests. Every Execute call is recorded; the Script callback decides the
// outcome. A nil Script makes every command succeed.
type FakeProvider struct {
	mu     sync.Mutex
	calls  []environment.Command
	closed bool

	// Script maps a command to its outcome. Called without the lock held.
	Script func(cmd environment.Command) (environment.Outcome, error)

	// Delay makes every call block, honoring context cancellation, so tests
	// can exercise in-flight cancellation.
	Delay time.Duration
}

// Execute implements environment.Provider.
func (p *FakeProvider) Execute(ctx context.Context, cmd environment.Command) (environment.Outcome, error) {
	p.mu.Lock()
	p.calls = append(p.calls, cmd)
	p.mu.Unlock()

	if p.Delay > 0 {
		select {
		case <-ctx.Done():
			return environment.Outcome{ExitCode: -1}, ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	if ctx.Err() != nil {
		return environment.Outcome{ExitCode: -1}, ctx.Err()
	}

	if p.Script != nil {
		return p.Script(cmd)
	}
	return environment.Outcome{ExitCode: 0}, nil
}

// Close implements environment.Provider.
func (p *FakeProvider) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Calls returns a snapshot of the recorded commands.
func (p *FakeProvider) Calls() []environment.Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]environment.Command, len(p.calls))
	copy(out, p.calls)
	return out
}

// Closed reports whether Close was called.
func (p *FakeProvider) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
