package observability

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStats_Snapshot(t *testing.T) {
	req := require.New(t)
	stats := NewStats(slog.Default())

	// Given some relay activity
	stats.SessionOpened()
	stats.SessionOpened()
	stats.SessionClosed()
	stats.MessageRouted()
	stats.MessageRouted()
	stats.MessageRouted()
	stats.EventDelivered()
	stats.EventDropped()

	snapshot := stats.snapshot()

	req.Equal(int64(1), snapshot.SessionsOpen)
	req.Equal(uint64(2), snapshot.SessionsOpened)
	req.Equal(uint64(3), snapshot.MessagesRouted)
	req.Equal(uint64(1), snapshot.EventsDelivered)
	req.Equal(uint64(1), snapshot.EventsDropped)
	req.Positive(snapshot.NumGoroutine)
}

func TestStats_Snapshot_Rate_Resets_Per_Window(t *testing.T) {
	req := require.New(t)
	stats := NewStats(slog.Default())

	stats.MessageRouted()
	first := stats.snapshot()
	req.GreaterOrEqual(first.MessagesPerSec, float64(0))

	// A quiet window reports a zero rate, not the lifetime total
	second := stats.snapshot()
	req.Zero(second.MessagesPerSec)
	req.Equal(uint64(1), second.MessagesRouted)
}
