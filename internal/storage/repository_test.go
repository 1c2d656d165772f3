package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteKV(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, ok, err := repo.Get(ctx, "balance")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "balance", "100"))
	require.NoError(t, repo.Set(ctx, "balance", "250"))

	v, ok, err := repo.Get(ctx, "balance")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "250", v)
}

func TestSQLiteSetAll(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, SetAll(ctx, repo, map[string]string{
		"theme":    "light",
		"expenses": `[{"id":1}]`,
	}))
	v, ok, err := repo.Get(ctx, "expenses")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, v)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	version, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestAppendEventIgnoresRedelivery(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	ev := EventRecord{
		EventID:    "evt-1",
		Type:       "expense.added",
		EntityID:   42,
		Amount:     "40",
		Balance:    "60",
		Revision:   3,
		OccurredAt: time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC),
	}
	inserted, err := repo.AppendEvent(ctx, ev)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.AppendEvent(ctx, ev)
	require.NoError(t, err)
	assert.False(t, inserted)

	events, err := repo.RecentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "expense.added", events[0].Type)
	assert.Equal(t, int64(42), events[0].EntityID)
	assert.Equal(t, uint64(3), events[0].Revision)
}
