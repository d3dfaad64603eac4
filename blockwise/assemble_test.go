package blockwise

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lobaro/coap-engine/coapmsg"
)

func TestAssemblerReassemblesInOrderBlocks(t *testing.T) {
	a := NewAssembler(0, nil)
	now := time.Unix(0, 0)
	token := []byte{9}

	complete, payload, err := a.Append("peerA", token, 0, true, 0, []byte("0123456789012345"), coapmsg.NewMessage(), now)
	require.NoError(t, err)
	require.False(t, complete)
	require.Nil(t, payload)

	complete, payload, err = a.Append("peerA", token, 1, false, 0, []byte("ab"), coapmsg.NewMessage(), now)
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, "0123456789012345ab", string(payload))
	require.Equal(t, 0, a.Len())
}

func TestAssemblerDropsOutOfOrderBlock(t *testing.T) {
	a := NewAssembler(0, nil)
	now := time.Unix(0, 0)
	token := []byte{9}

	complete, _, err := a.Append("peerA", token, 1, true, 0, []byte("late"), coapmsg.NewMessage(), now)
	require.NoError(t, err)
	require.False(t, complete)
	require.Equal(t, 1, a.Len())
}

func TestAssemblerEnforcesMaxSize(t *testing.T) {
	a := NewAssembler(10, nil)
	now := time.Unix(0, 0)
	token := []byte{9}

	_, _, err := a.Append("peerA", token, 0, false, 0, make([]byte, 20), coapmsg.NewMessage(), now)
	require.ErrorIs(t, err, ErrTooLarge)
	require.Equal(t, 0, a.Len())
}

func TestAssemblerReapsIdleStates(t *testing.T) {
	a := NewAssembler(0, nil)
	now := time.Unix(0, 0)
	token := []byte{9}

	_, _, err := a.Append("peerA", token, 0, true, 0, []byte("x"), coapmsg.NewMessage(), now)
	require.NoError(t, err)

	a.Reap(now.Add(time.Minute), 30*time.Second)
	require.Equal(t, 0, a.Len())
}
