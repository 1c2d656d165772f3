package redis

import (
	"context"
	"testing"

	"budget/internal/storage"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.KV          = (*Store)(nil)
	_ storage.BatchWriter = (*Store)(nil)
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "budget:"), mr
}

func TestStorePrefixesKeys(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.Set(ctx, "theme", "light"))
	got, err := mr.Get("budget:theme")
	require.NoError(t, err)
	assert.Equal(t, "light", got)

	v, ok, err := s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", v)
}

func TestStoreMissingKey(t *testing.T) {
	s, _ := newTestStore(t)
	_, ok, err := s.Get(context.Background(), "goals")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreSetMany(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.SetMany(ctx, map[string]string{
		"balance":  "120.5",
		"expenses": "[]",
	}))
	assert.True(t, mr.Exists("budget:balance"))
	assert.True(t, mr.Exists("budget:expenses"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Connect(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(context.Background(), "balance", "1"))
	assert.True(t, mr.Exists("balance"))
}
