package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("burst then wait", func(t *testing.T) {
		rl := newRateLimiter(20)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.NoError(t, rl.wait(ctx))
		require.NoError(t, rl.wait(ctx))
		assert.Error(t, rl.wait(ctx))
	})

	t.Run("wait honors cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.Error(t, rl.wait(ctx))
	})

	t.Run("default rate", func(t *testing.T) {
		rl := newRateLimiter(0)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		for range 6 {
			require.NoError(t, rl.wait(ctx))
		}
		assert.Error(t, rl.wait(ctx))
	})
}
