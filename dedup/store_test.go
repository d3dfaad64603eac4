package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// CheckAndRecord returns Duplicate on the second call iff it occurs
// within DEDUP_WINDOW of the first.
func TestCheckAndRecordWithinWindow(t *testing.T) {
	s := New(Config{Window: 60 * time.Second})
	t0 := time.Unix(0, 0)

	require.Equal(t, Fresh, s.CheckAndRecord("peerA", 1, t0))
	require.Equal(t, Duplicate, s.CheckAndRecord("peerA", 1, t0.Add(5*time.Second)))
}

func TestCheckAndRecordAfterWindowIsFreshAgain(t *testing.T) {
	s := New(Config{Window: 60 * time.Second})
	t0 := time.Unix(0, 0)

	require.Equal(t, Fresh, s.CheckAndRecord("peerA", 1, t0))
	require.Equal(t, Fresh, s.CheckAndRecord("peerA", 1, t0.Add(61*time.Second)))
}

func TestCheckAndRecordKeyIncludesPeer(t *testing.T) {
	s := New(Config{Window: 60 * time.Second})
	t0 := time.Unix(0, 0)

	require.Equal(t, Fresh, s.CheckAndRecord("peerA", 1, t0))
	require.Equal(t, Fresh, s.CheckAndRecord("peerB", 1, t0))
}

func TestCapacityEvictsOldestFIFO(t *testing.T) {
	s := New(Config{Window: 60 * time.Second, Capacity: 2})
	t0 := time.Unix(0, 0)

	require.Equal(t, Fresh, s.CheckAndRecord("peerA", 1, t0))
	require.Equal(t, Fresh, s.CheckAndRecord("peerA", 2, t0.Add(time.Second)))
	require.Equal(t, Fresh, s.CheckAndRecord("peerA", 3, t0.Add(2*time.Second)))
	require.Equal(t, 2, s.Len())

	// The oldest record (mid=1) was evicted, so it now looks Fresh again.
	require.Equal(t, Fresh, s.CheckAndRecord("peerA", 1, t0.Add(3*time.Second)))
}

func TestReapRemovesAgedRecords(t *testing.T) {
	s := New(Config{Window: 10 * time.Second})
	t0 := time.Unix(0, 0)

	require.Equal(t, Fresh, s.CheckAndRecord("peerA", 1, t0))
	s.Reap(t0.Add(11 * time.Second))
	require.Equal(t, 0, s.Len())
}
