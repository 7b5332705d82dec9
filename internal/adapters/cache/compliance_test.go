package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelyams/sneaker_house_service/internal/ports"
)

// runComplianceTests checks the behavior every ports.Cache implementation shares.
func runComplianceTests(t *testing.T, c ports.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "/compliance.json", []byte(`{"v":1}`), time.Minute))
		val, found, err := c.Get(ctx, "/compliance.json")
		require.NoError(t, err)
		assert.True(t, found)
		assert.JSONEq(t, `{"v":1}`, string(val))
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "/nonexistent.json")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "/del.json", []byte(`{"v":2}`), time.Minute))
		require.NoError(t, c.Delete(ctx, "/del.json"))
		_, found, err := c.Get(ctx, "/del.json")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		assert.NoError(t, c.Delete(ctx, "/never-existed.json"))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "/ow.json", []byte(`{"v":"old"}`), time.Minute))
		require.NoError(t, c.Set(ctx, "/ow.json", []byte(`{"v":"new"}`), time.Minute))
		val, found, err := c.Get(ctx, "/ow.json")
		require.NoError(t, err)
		assert.True(t, found)
		assert.JSONEq(t, `{"v":"new"}`, string(val))
	})

	t.Run("ClearAndStats", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "/a.json", []byte(`[1,2,3]`), time.Minute))
		stats, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.Positive(t, stats.Size)
		assert.Len(t, stats.Entries, stats.Size)

		require.NoError(t, c.Clear(ctx))
		stats, err = c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Size)
		_, found, err := c.Get(ctx, "/a.json")
		require.NoError(t, err)
		assert.False(t, found)
	})
}
