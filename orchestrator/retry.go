package orchestrator

import (
	"context"
	"errors"
	"log"
	"time"
)

// DefaultRetryBudget caps how many times a rate-limited run is re-invoked
// before giving up.
const DefaultRetryBudget = 3

// MinRetryDelay floors the wait between re-invocations even when the server
// hint is shorter or absent.
const MinRetryDelay = time.Second

// ErrRetryBudgetExhausted is returned alongside the final RunResult when the
// retry budget is spent and at least one slot is still rate-limited.
var ErrRetryBudgetExhausted = errors.New("orchestrator: retry budget exhausted, still rate limited")

// RetryPolicy tunes RunWithRetry. The zero value selects the defaults.
type RetryPolicy struct {
	Budget int           // re-invocations allowed, default DefaultRetryBudget
	Floor  time.Duration // minimum wait, default MinRetryDelay

	// Sleep is replaceable in tests. Nil means a context-aware real sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Budget <= 0 {
		p.Budget = DefaultRetryBudget
	}
	if p.Floor <= 0 {
		p.Floor = MinRetryDelay
	}
	if p.Sleep == nil {
		p.Sleep = sleepCtx
	}
	return p
}

// RunWithRetry runs the request and, while any slot is rate-limited,
// re-invokes the same request after the longest server retry hint (floored).
// Slots that ended in plain errors never trigger a retry; only 429s do. The
// last RunResult is always returned, with ErrRetryBudgetExhausted when the
// budget ran out before the rate limit cleared.
func (o *Orchestrator) RunWithRetry(ctx context.Context, req Request, policy RetryPolicy) (*RunResult, error) {
	policy = policy.withDefaults()

	result, err := o.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		wait := result.RateLimitedWait()
		if wait == 0 {
			return result, nil
		}
		if attempt > policy.Budget {
			return result, ErrRetryBudgetExhausted
		}
		if wait < policy.Floor {
			wait = policy.Floor
		}
		log.Printf("orchestrator: rate limited, retry %d/%d in %s", attempt, policy.Budget, wait)
		if err := policy.Sleep(ctx, wait); err != nil {
			return result, err
		}
		result, err = o.Run(ctx, req)
		if err != nil {
			return nil, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
