package coapmsg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetPathStringStripsLeadingSlash(t *testing.T) {
	msg := NewMessage()
	msg.SetPathString("/sensors/temperature")
	require.Equal(t, []string{"sensors", "temperature"}, msg.Path())
}

func TestSetQueryString(t *testing.T) {
	msg := NewMessage()
	msg.SetQueryString("a=1&b=2")
	require.Equal(t, []string{"a=1", "b=2"}, msg.Query())
}

func TestNewAckAndRst(t *testing.T) {
	ack := NewAck(5)
	require.Equal(t, Acknowledgement, ack.Type)
	require.Equal(t, uint16(5), ack.MessageID)

	rst := NewRst(6)
	require.Equal(t, Reset, rst.Type)
	require.Equal(t, uint16(6), rst.MessageID)
}
