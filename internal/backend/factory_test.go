package backend

import (
	"context"
	"path/filepath"
	"testing"

	"budget/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, res *BackendResult) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, res.KV.Set(ctx, "balance", "42"))
	v, ok, err := res.KV.Get(ctx, "balance")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
		require.NoError(t, err)
		roundTrip(t, res)
		assert.NoError(t, res.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "b.db")})
		require.NoError(t, err)
		defer res.Close()
		roundTrip(t, res)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		res, err := f.CreateBackend(ctx, Config{Type: RedisBackend, RedisAddr: mr.Addr(), RedisPrefix: "t:"})
		require.NoError(t, err)
		defer res.Close()
		roundTrip(t, res)
		assert.True(t, mr.Exists("t:balance"))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := f.CreateBackend(ctx, Config{Type: "sheets"})
		assert.Error(t, err)
		_, err = f.CreateBackend(ctx, Config{Type: RedisBackend})
		assert.Error(t, err)
	})
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "redis", RedisAddr: "localhost:6379", RedisPrefix: "budget:"})
	require.NoError(t, err)
	assert.Equal(t, RedisBackend, cfg.Type)
	assert.Equal(t, "budget:", cfg.RedisPrefix)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	assert.Equal(t, []string{"sqlite", "redis", "memory"}, GetBackendTypeStrings())
}

func TestNilResultClose(t *testing.T) {
	var r *BackendResult
	assert.NoError(t, r.Close())
}
