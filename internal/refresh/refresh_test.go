package refresh_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/refresh"
)

type counter struct{ n atomic.Int32 }

func (c *counter) FetchTodos() { c.n.Add(1) }

func TestScheduler_FiresEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	target := &counter{}

	s, err := refresh.New(target, time.Minute, nil, gocron.WithClock(clock))
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Zero(t, target.n.Load(), "nothing runs before the first interval")

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return target.n.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return target.n.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestNew_RejectsNonPositiveInterval(t *testing.T) {
	_, err := refresh.New(&counter{}, 0, nil)
	assert.Error(t, err)
}
