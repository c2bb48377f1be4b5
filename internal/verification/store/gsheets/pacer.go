package gsheets

import (
	"context"
	"sync"
	"time"
)

// pacer spaces outbound API calls by a minimum interval. The Sheets API
// enforces a per-user write quota; pacing every call keeps the store under
// it without scattering sleeps through business logic. Holding the mutex
// across the wait also serializes callers, so there is never parallel
// fan-out against the backend.
type pacer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newPacer(interval time.Duration) *pacer {
	return &pacer{interval: interval}
}

// wait blocks until at least the configured interval has passed since the
// previous call, or the context is done.
func (p *pacer) wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interval > 0 && !p.last.IsZero() {
		remaining := p.interval - time.Since(p.last)
		if remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()

			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	p.last = time.Now()

	return nil
}
