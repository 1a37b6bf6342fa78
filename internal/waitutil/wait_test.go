package waitutil

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPoll(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("succeeds once condition holds", func(t *testing.T) {
		var calls atomic.Int32
		ok, err := Poll(context.Background(), 10*time.Millisecond, time.Second, func(context.Context) (bool, error) {
			return calls.Add(1) >= 3, nil
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("errors count as not yet", func(t *testing.T) {
		var calls atomic.Int32
		ok, err := Poll(context.Background(), 5*time.Millisecond, time.Second, func(context.Context) (bool, error) {
			if calls.Add(1) < 2 {
				return true, errors.New("bridge detached")
			}
			return true, nil
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("bound elapses without error", func(t *testing.T) {
		start := time.Now()
		ok, err := Poll(context.Background(), 20*time.Millisecond, 100*time.Millisecond, func(context.Context) (bool, error) {
			return false, nil
		})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("probes at least once", func(t *testing.T) {
		var calls atomic.Int32
		_, err := Poll(context.Background(), time.Hour, 50*time.Millisecond, func(context.Context) (bool, error) {
			calls.Add(1)
			return false, nil
		})
		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("parent cancellation is reported", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(30*time.Millisecond, cancel)
		ok, err := Poll(ctx, 5*time.Millisecond, 5*time.Second, func(context.Context) (bool, error) {
			return false, nil
		})
		assert.False(t, ok)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRace(t *testing.T) {
	defer goleak.VerifyNone(t)

	after := func(d time.Duration, err error) Wait {
		return func(ctx context.Context) error {
			select {
			case <-time.After(d):
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	t.Run("fastest success wins and siblings are cancelled", func(t *testing.T) {
		var cancelled atomic.Bool
		slow := func(ctx context.Context) error {
			<-ctx.Done()
			cancelled.Store(true)
			return ctx.Err()
		}
		start := time.Now()
		winner, err := Race(context.Background(), 2*time.Second, slow, after(20*time.Millisecond, nil), slow)
		require.NoError(t, err)
		assert.Equal(t, 1, winner)
		assert.Less(t, time.Since(start), time.Second)
		assert.True(t, cancelled.Load())
	})

	t.Run("failures drop out", func(t *testing.T) {
		winner, err := Race(context.Background(), time.Second,
			after(time.Millisecond, errors.New("boom")),
			after(30*time.Millisecond, nil),
		)
		require.NoError(t, err)
		assert.Equal(t, 1, winner)
	})

	t.Run("no winner within bound", func(t *testing.T) {
		winner, err := Race(context.Background(), 50*time.Millisecond, after(time.Hour, nil), after(time.Hour, nil))
		require.NoError(t, err)
		assert.Equal(t, -1, winner)
	})

	t.Run("zero waits", func(t *testing.T) {
		winner, err := Race(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Equal(t, -1, winner)
	})

	t.Run("parent cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		winner, err := Race(ctx, time.Second, after(time.Hour, nil))
		assert.Equal(t, -1, winner)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
