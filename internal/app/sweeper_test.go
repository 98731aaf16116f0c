package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTarget struct {
	calls atomic.Int32
	ttl   atomic.Int64
}

func (c *countingTarget) SweepExpired(_ time.Time, ttl time.Duration) int {
	c.calls.Add(1)
	c.ttl.Store(int64(ttl))
	return 1
}

func TestSweeper_TicksUntilStopped(t *testing.T) {
	target := &countingTarget{}
	s := NewSweeper(target, 10*time.Millisecond, time.Hour)

	s.Start(context.Background())
	s.Start(context.Background())
	require.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return target.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(time.Hour), target.ttl.Load())

	s.Stop()
	assert.False(t, s.IsRunning())
	after := target.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, target.calls.Load())

	s.Stop()
}

func TestSweeper_StopsOnContextCancel(t *testing.T) {
	s := NewSweeper(&countingTarget{}, time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 5*time.Millisecond)

	s.Start(context.Background())
	assert.True(t, s.IsRunning(), "a stopped sweeper can be restarted")
	s.Stop()
}

func TestSweeper_RunOnceAgainstRegistry(t *testing.T) {
	clock := newClock()
	store := NewStore(WithClock(clock.Now))
	sess := store.Create()
	target := sweepFunc(func(now time.Time, ttl time.Duration) int {
		return len(store.SweepExpired(now, ttl))
	})

	s := NewSweeper(target, time.Minute, time.Hour)
	s.now = clock.Now

	clock.Advance(59 * time.Minute)
	assert.Equal(t, 0, s.RunOnce())
	_, err := store.Get(sess.Token)
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)
	assert.Equal(t, 1, s.RunOnce())
	_, err = store.Get(sess.Token)
	assert.Error(t, err)
}

func TestSweeper_Defaults(t *testing.T) {
	s := NewSweeper(&countingTarget{}, 0, 0)
	assert.Equal(t, DefaultSweepInterval, s.interval)
	assert.Equal(t, DefaultSessionTTL, s.ttl)
}

type sweepFunc func(time.Time, time.Duration) int

func (f sweepFunc) SweepExpired(now time.Time, ttl time.Duration) int { return f(now, ttl) }
