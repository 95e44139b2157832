package observability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Stats_Counters_Show_Up_In_Snapshot(t *testing.T) {
	req := require.New(t)
	stats := NewStats()

	stats.IncrPersisted()
	stats.IncrPersisted()
	stats.IncrBroadcast()
	stats.IncrDropped()
	stats.IncrFanoutFailures()
	stats.IncrPersistFailures()

	report := stats.Snapshot(2, 5)
	req.Equal(uint64(2), report.MessagesPersisted)
	req.Equal(uint64(1), report.EventsBroadcast)
	req.Equal(uint64(1), report.EventsDropped)
	req.Equal(uint64(1), report.FanoutFailures)
	req.Equal(uint64(1), report.PersistFailures)
	req.Equal(2, report.Rooms)
	req.Equal(5, report.Sessions)
}

func Test_Stats_Nil_Receiver_Is_Harmless(t *testing.T) {
	req := require.New(t)
	var stats *Stats

	stats.IncrPersisted()
	stats.IncrBroadcast()

	report := stats.Snapshot(1, 1)
	req.Equal(1, report.Rooms)
	req.Zero(report.MessagesPersisted)
}
