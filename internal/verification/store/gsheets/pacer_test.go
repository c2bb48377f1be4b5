package gsheets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_SpacesCalls(t *testing.T) {
	p := newPacer(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, p.wait(ctx))
	require.NoError(t, p.wait(ctx))
	require.NoError(t, p.wait(ctx))

	// The first call is free; the next two each wait the interval.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestPacer_FirstCallDoesNotWait(t *testing.T) {
	p := newPacer(time.Hour)

	start := time.Now()
	require.NoError(t, p.wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestPacer_ZeroIntervalNeverWaits(t *testing.T) {
	p := newPacer(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, p.wait(ctx))
	}

	assert.Less(t, time.Since(start), time.Second)
}

func TestPacer_ContextCancel(t *testing.T) {
	p := newPacer(time.Hour)
	require.NoError(t, p.wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
