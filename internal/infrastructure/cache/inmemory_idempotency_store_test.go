package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("first mark succeeds, second is rejected", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		fresh, err := store.MarkProcessed(ctx, "op-123", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = store.MarkProcessed(ctx, "op-123", time.Hour)
		require.NoError(t, err)
		assert.False(t, fresh)
	})

	t.Run("distinct keys are independent", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		fresh, err := store.MarkProcessed(ctx, "op-a", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = store.MarkProcessed(ctx, "op-b", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("IsProcessed reflects state", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		processed, err := store.IsProcessed(ctx, "op-x")
		require.NoError(t, err)
		assert.False(t, processed)

		_, err = store.MarkProcessed(ctx, "op-x", time.Hour)
		require.NoError(t, err)

		processed, err = store.IsProcessed(ctx, "op-x")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("released key can be marked again", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, err := store.MarkProcessed(ctx, "op-failed", time.Hour)
		require.NoError(t, err)

		require.NoError(t, store.Release(ctx, "op-failed"))

		fresh, err := store.MarkProcessed(ctx, "op-failed", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("releasing an unknown key is a no-op", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		require.NoError(t, store.Release(ctx, "op-unknown"))
	})

	t.Run("expired key can be marked again", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, err := store.MarkProcessed(ctx, "op-short", time.Millisecond)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		processed, err := store.IsProcessed(ctx, "op-short")
		require.NoError(t, err)
		assert.False(t, processed)

		fresh, err := store.MarkProcessed(ctx, "op-short", time.Hour)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("concurrent marks admit exactly one", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		var wg sync.WaitGroup
		var mu sync.Mutex
		admitted := 0
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				fresh, err := store.MarkProcessed(ctx, "op-race", time.Hour)
				require.NoError(t, err)
				if fresh {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, admitted)
	})

	t.Run("cleanup removes expired records", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, err := store.MarkProcessed(ctx, "op-old", time.Millisecond)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)

		store.cleanup()
		assert.Equal(t, 0, store.Size())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		require.NoError(t, store.Close())
		require.NoError(t, store.Close())
	})
}
