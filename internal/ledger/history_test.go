package ledger

import (
	"testing"
	"time"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryIsBounded(t *testing.T) {
	h := NewHistory(0, nil)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultHistoryLimit+50; i++ {
		h.Record(core.MoneyFromInt(int64(i)), start.Add(time.Duration(i)*time.Second))
	}
	require.Equal(t, DefaultHistoryLimit, h.Len())

	series := h.Snapshots()
	assert.True(t, series[0].Balance.Equal(core.MoneyFromInt(50)), "oldest entries are evicted first")
	assert.True(t, series[len(series)-1].Balance.Equal(core.MoneyFromInt(DefaultHistoryLimit+49)))
}

func TestHistoryTrimsOversizedInput(t *testing.T) {
	series := make([]core.Snapshot, 12)
	for i := range series {
		series[i] = core.Snapshot{Balance: core.MoneyFromInt(int64(i))}
	}
	h := NewHistory(10, series)
	assert.Equal(t, 10, h.Len())
	assert.True(t, h.Snapshots()[0].Balance.Equal(core.MoneyFromInt(2)))
}

func TestHistorySeedOnlyWhenEmpty(t *testing.T) {
	h := NewHistory(10, nil)
	assert.True(t, h.Seed(core.MoneyFromInt(1), time.Now()))
	assert.False(t, h.Seed(core.MoneyFromInt(2), time.Now()))
	assert.Equal(t, 1, h.Len())
}

func TestStoreHistoryLimitOption(t *testing.T) {
	s := NewStore(core.State{}, WithHistoryLimit(3))
	for i := 0; i < 5; i++ {
		s.SetBalance(core.MoneyFromInt(int64(i)))
	}
	assert.Len(t, s.State().History, 3)
}
