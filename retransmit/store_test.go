package retransmit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndOnAckOrReset(t *testing.T) {
	s := New(Config{AckTimeout: 2 * time.Second, AckRandomFactor: 1.0, MaxRetransmit: 4})
	now := time.Unix(0, 0)

	require.NoError(t, s.Register("peerA", 1, []byte("hi"), now))
	require.Equal(t, 1, s.Len())

	require.True(t, s.OnAckOrReset("peerA", 1))
	require.Equal(t, 0, s.Len())
	require.False(t, s.OnAckOrReset("peerA", 1))
}

// A CON sent at t=0 with ACK_TIMEOUT=2s, RANDOM_FACTOR=1.0,
// MAX_RETRANSMIT=4 and no inbound ACK produces resends at t=2,4,8,16 and
// a TimedOut at t=32.
func TestTickExponentialBackoffSchedule(t *testing.T) {
	s := New(Config{AckTimeout: 2 * time.Second, AckRandomFactor: 1.0, MaxRetransmit: 4})
	t0 := time.Unix(0, 0)
	require.NoError(t, s.Register("peerA", 1, []byte("hi"), t0))

	schedule := []int{2, 4, 8, 16}
	for _, secs := range schedule {
		events := s.Tick(t0.Add(time.Duration(secs) * time.Second))
		require.Len(t, events, 1)
		require.Equal(t, Resend, events[0].Kind)
	}

	events := s.Tick(t0.Add(32 * time.Second))
	require.Len(t, events, 1)
	require.Equal(t, TimedOut, events[0].Kind)
	require.Equal(t, 0, s.Len())
}

func TestTickNotYetDueProducesNoEvents(t *testing.T) {
	s := New(Config{AckTimeout: 2 * time.Second, AckRandomFactor: 1.0, MaxRetransmit: 4})
	t0 := time.Unix(0, 0)
	require.NoError(t, s.Register("peerA", 1, []byte("hi"), t0))
	require.Empty(t, s.Tick(t0.Add(time.Second)))
}

func TestRegisterReturnsFullAtCapacity(t *testing.T) {
	s := New(Config{Capacity: 1})
	now := time.Unix(0, 0)
	require.NoError(t, s.Register("peerA", 1, nil, now))
	require.ErrorIs(t, s.Register("peerA", 2, nil, now), ErrFull)
}

func TestTickOrdersByRegistrationOnTie(t *testing.T) {
	s := New(Config{AckTimeout: time.Second, AckRandomFactor: 1.0, MaxRetransmit: 1})
	t0 := time.Unix(0, 0)
	require.NoError(t, s.Register("peerA", 1, nil, t0))
	require.NoError(t, s.Register("peerA", 2, nil, t0))

	events := s.Tick(t0.Add(time.Second))
	require.Len(t, events, 2)
	require.Equal(t, uint16(1), events[0].MessageID)
	require.Equal(t, uint16(2), events[1].MessageID)
}
