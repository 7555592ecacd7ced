package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/weather-history-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, closeFn, err := OpenStore(ctx, &config.Config{CacheBackend: config.CacheBackendMemory, CacheMemoryEntries: 2})
		require.NoError(t, err)
		defer closeFn() //nolint:errcheck
		require.IsType(t, &TieredStore{}, store)
		assert.IsType(t, &MemoryStore{}, store.(*TieredStore).durable)
	})

	t.Run("file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "cache")
		store, closeFn, err := OpenStore(ctx, &config.Config{CacheBackend: config.CacheBackendFile, CacheDir: dir, CacheMemoryEntries: 2})
		require.NoError(t, err)
		defer closeFn() //nolint:errcheck
		require.IsType(t, &TieredStore{}, store)

		require.NoError(t, store.Set(ctx, "weather__54511_2024_01", `{"timestamp":1,"data":[]}`))
		durable, err := NewFileStore(dir)
		require.NoError(t, err)
		v, ok, err := durable.Get(ctx, "weather__54511_2024_01")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"timestamp":1,"data":[]}`, v)
	})

	t.Run("unknown", func(t *testing.T) {
		_, closeFn, err := OpenStore(ctx, &config.Config{CacheBackend: "redis"})
		require.EqualError(t, err, `unknown cache backend "redis"`)
		assert.NotNil(t, closeFn)
	})
}
