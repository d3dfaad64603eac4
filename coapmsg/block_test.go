package coapmsg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockOptionRoundTrip(t *testing.T) {
	cases := []struct {
		num  uint32
		more bool
		szx  uint8
	}{
		{0, true, 0},
		{3, false, 0},
		{20, true, 4},
		{5000, true, 6},
	}
	for _, c := range cases {
		v := EncodeBlockOption(c.num, c.more, c.szx)
		num, more, szx, err := DecodeBlockOption(v)
		require.NoError(t, err)
		require.Equal(t, c.num, num)
		require.Equal(t, c.more, more)
		require.Equal(t, c.szx, szx)
	}
}

func TestBlockSize(t *testing.T) {
	require.Equal(t, 16, BlockSize(0))
	require.Equal(t, 1024, BlockSize(6))
}

func TestDecodeBlockOptionRejectsEmpty(t *testing.T) {
	_, _, _, err := DecodeBlockOption(nil)
	require.ErrorIs(t, err, ErrBadBlockValue)
}
