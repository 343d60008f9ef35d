package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/model"
)

func openMemory(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(MemoryPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_DispatchCounts(t *testing.T) {
	r := openMemory(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, kind := range []string{"market/update", "market/update", "auth/loginSucceeded"} {
		require.NoError(t, r.RecordDispatch(&DispatchEvent{Kind: kind, At: at}))
	}

	sum, err := r.Summary(0)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Dispatches)
	assert.Equal(t, map[string]int{"market/update": 2, "auth/loginSucceeded": 1}, sum.Counts)
	assert.Empty(t, sum.Notifications)
}

func TestSQLiteRecorder_NotificationsNewestFirst(t *testing.T) {
	r := openMemory(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, msg := range []string{"first", "second", "third"} {
		n := model.Notification{ID: msg, Severity: model.SeverityInfo, Message: msg, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, r.RecordNotification(&n))
	}
	dup := model.Notification{ID: "first", Message: "ignored", CreatedAt: base}
	require.NoError(t, r.RecordNotification(&dup))

	sum, err := r.Summary(2)
	require.NoError(t, err)
	require.Len(t, sum.Notifications, 2)
	assert.Equal(t, "third", sum.Notifications[0].Message)
	assert.Equal(t, "second", sum.Notifications[1].Message)
	assert.Equal(t, model.SeverityInfo, sum.Notifications[0].Severity)
	assert.True(t, sum.Notifications[0].CreatedAt.Equal(base.Add(2*time.Second)))
}

func TestSQLiteRecorder_PriceTicks(t *testing.T) {
	r := openMemory(t)
	q := model.PriceQuote{
		Prices:    map[string]float64{"BTC": 50000, "ETH": 3000},
		Changes24: map[string]float64{"BTC": 1.2},
	}
	require.NoError(t, r.RecordPrices(q, time.Now()))
	require.NoError(t, r.RecordPrices(model.PriceQuote{}, time.Now()))

	sum, err := r.Summary(0)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.PriceTicks)
}

func TestSQLiteRecorder_FileDatabaseSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	r, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, r.RecordDispatch(&DispatchEvent{Kind: "ui/reset", At: time.Now()}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	defer r.Close()
	sum, err := r.Summary(5)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Counts["ui/reset"])
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordDispatch(&DispatchEvent{Kind: "x"}))
	sum, err := r.Summary(10)
	require.NoError(t, err)
	assert.Zero(t, sum.Dispatches)
	assert.NoError(t, r.Close())
}
