package blockwise

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lobaro/coap-engine/coapmsg"
)

// A 50-byte upload at block size 16 produces four blocks of 16, 16, 16,
// 2 bytes.
func TestSeedSplitsIntoBlocks(t *testing.T) {
	s := NewSender(nil)

	template := coapmsg.NewMessage()
	template.Type = coapmsg.Confirmable
	template.Code = coapmsg.PUT
	template.Token = []byte{1}
	payload := make([]byte, 50)
	for i := range payload {
		payload[i] = byte(i)
	}
	template.Payload = payload

	first, needed, err := s.Seed("peerA", template, 16, coapmsg.Block1)
	require.NoError(t, err)
	require.True(t, needed)
	require.Len(t, first.Payload, 16)

	num, more, szx, err := coapmsg.DecodeBlockOption(first.Options()[coapmsg.Block1].AsBytes())
	require.NoError(t, err)
	require.Equal(t, uint32(0), num)
	require.True(t, more)
	require.Equal(t, uint8(0), szx)

	var reassembled []byte
	reassembled = append(reassembled, first.Payload...)

	for blockNum := uint32(1); ; blockNum++ {
		msg, found := s.Next("peerA", []byte{1}, blockNum)
		require.True(t, found)
		num, more2, _, err := coapmsg.DecodeBlockOption(msg.Options()[coapmsg.Block1].AsBytes())
		require.NoError(t, err)
		require.Equal(t, blockNum, num)
		reassembled = append(reassembled, msg.Payload...)
		if !more2 {
			break
		}
	}

	require.Equal(t, payload, reassembled)
}

func TestSeedSkipsBlockwiseWhenPayloadFits(t *testing.T) {
	s := NewSender(nil)
	template := coapmsg.NewMessage()
	template.Payload = make([]byte, 16)

	first, needed, err := s.Seed("peerA", template, 16, coapmsg.Block1)
	require.NoError(t, err)
	require.False(t, needed)
	require.Equal(t, template.Payload, first.Payload)
}

func TestNextUnknownTransferNotFound(t *testing.T) {
	s := NewSender(nil)
	_, found := s.Next("peerA", []byte{1}, 1)
	require.False(t, found)
}
