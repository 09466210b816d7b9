package codeact

import (
	"context"
	"strings"
	"sync"
)

// AskFunc is the secondary ask-the-model capability a sandboxed script may
// invoke.
type AskFunc func(ctx context.Context, prompt string) (string, error)

// SubCallBudget enforces a hard ceiling on secondary model calls. It is
// scoped to one run and never shared across runs. Scripts may issue calls
// in overlapping succession, so the counter is guarded by an exclusive
// lock: the number of calls that reach the underlying capability never
// exceeds the ceiling.
type SubCallBudget struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewSubCallBudget creates a budget with the given call ceiling.
func NewSubCallBudget(limit int) *SubCallBudget {
	return &SubCallBudget{limit: limit}
}

// Acquire consumes one call from the budget. The increment and the ceiling
// check happen inside one critical section.
func (b *SubCallBudget) Acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used++
	if b.used > b.limit {
		return newBudgetExceededError(b.limit)
	}
	return nil
}

// Used returns the number of acquisitions so far, including rejected ones.
func (b *SubCallBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Wrap guards ask with the budget. Blank prompts fail immediately without
// consuming budget; once the ceiling is exceeded the underlying capability
// is never invoked.
func (b *SubCallBudget) Wrap(ask AskFunc) AskFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		if strings.TrimSpace(prompt) == "" {
			return "", &LoopError{Message: "prompt must not be empty"}
		}
		if err := b.Acquire(); err != nil {
			return "", err
		}
		return ask(ctx, prompt)
	}
}
