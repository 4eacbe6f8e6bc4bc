package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	policy := Policy{Attempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 1.5}

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		v, err := Do(context.Background(), policy, "op", func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("flaky")
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		sentinel := errors.New("still down")
		calls := 0
		_, err := Do(context.Background(), policy, "op", func(context.Context) (int, error) {
			calls++
			return 0, sentinel
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error stops at once", func(t *testing.T) {
		sentinel := errors.New("not found")
		calls := 0
		_, err := Do(context.Background(), policy, "op", func(context.Context) (int, error) {
			calls++
			return 0, Permanent(sentinel)
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := Policy{Attempts: 3, InitialDelay: time.Hour, BackoffFactor: 1}
		_, err := Do(ctx, slow, "op", func(context.Context) (int, error) {
			return 0, errors.New("fail")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("zero attempts still calls once", func(t *testing.T) {
		calls := 0
		_, _ = Do(context.Background(), Policy{}, "op", func(context.Context) (int, error) {
			calls++
			return 0, errors.New("fail")
		})
		assert.Equal(t, 1, calls)
	})
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestPolicyDelay(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, time.Second, p.delay(0))
	assert.Equal(t, 1500*time.Millisecond, p.delay(1))
	assert.Equal(t, 2250*time.Millisecond, p.delay(2))
}
