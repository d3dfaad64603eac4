package coapmsg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripSimpleGet(t *testing.T) {
	msg := NewMessage()
	msg.Type = Confirmable
	msg.Code = GET
	msg.MessageID = 0x1234
	msg.SetPathString("temp")

	data, err := Encode(&msg)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	require.Equal(t, msg.Type, decoded.Type)
	require.Equal(t, msg.Code, decoded.Code)
	require.Equal(t, msg.MessageID, decoded.MessageID)
	require.Equal(t, []string{"temp"}, decoded.Path())
}

func TestRoundTripPreservesTokenAndPayload(t *testing.T) {
	msg := NewMessage()
	msg.Type = Confirmable
	msg.Code = POST
	msg.MessageID = 7
	msg.Token = []byte{1, 2, 3}
	msg.Payload = []byte("hello")
	require.NoError(t, msg.Options().Set(ContentType, uint16(0)))

	data, err := Encode(&msg)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	require.Equal(t, msg.Token, decoded.Token)
	require.Equal(t, msg.Payload, decoded.Payload)
}

// A Content-Type plus Block1 option chain must re-decode without error
// (Decode rejects any delta it computes as producing a number <= the
// previous one). This does not by itself inspect each delta's size.
func TestOptionDeltasStayInOrder(t *testing.T) {
	msg := NewMessage()
	msg.Type = NonConfirmable
	msg.Code = GET
	msg.MessageID = 1
	require.NoError(t, msg.Options().Set(ContentType, uint16(0)))
	require.NoError(t, msg.Options().Set(Block1, EncodeBlockOption(0, true, 0)))

	data, err := Encode(&msg)
	require.NoError(t, err)

	_, err = Decode(data)
	require.NoError(t, err)
}

// Content-Type (1) and Block1 (19) with nothing between them forces a
// Fencepost, since the gap is 18 > 14.
func TestFencepostInsertedForLargeGap(t *testing.T) {
	msg := NewMessage()
	msg.Type = Confirmable
	msg.Code = PUT
	msg.MessageID = 1
	require.NoError(t, msg.Options().Set(ContentType, uint16(0)))
	require.NoError(t, msg.Options().Set(Block1, EncodeBlockOption(0, false, 0)))

	entries, err := buildWireOptions(&msg)
	require.NoError(t, err)

	var ids []OptionId
	for _, e := range entries {
		ids = append(ids, e.id)
	}
	require.Equal(t, []OptionId{ContentType, Fencepost, Block1}, ids)

	data, err := Encode(&msg)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)

	// Fencepost is not observable after decode.
	_, hasFencepost := decoded.Options()[Fencepost]
	require.False(t, hasFencepost)
	require.True(t, decoded.Options()[ContentType].IsSet())
	require.True(t, decoded.Options()[Block1].IsSet())
}

func TestEncodeResetWithOptionsFails(t *testing.T) {
	msg := NewMessage()
	msg.Type = Reset
	msg.MessageID = 1
	require.NoError(t, msg.Options().Set(URIPath, "x"))

	_, err := Encode(&msg)
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestEncodeResetEmptyOK(t *testing.T) {
	msg := NewRst(42)
	data, err := Encode(&msg)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, Reset, decoded.Type)
	require.Equal(t, uint16(42), decoded.MessageID)
}

// Option value lengths of exactly 14, 15 and 270 bytes exercise the
// inline nibble, the extended-length escape, and the largest
// representable length respectively.
func TestOptionLengthBoundaries(t *testing.T) {
	for _, length := range []int{14, 15, 270} {
		length := length
		t.Run("", func(t *testing.T) {
			msg := NewMessage()
			msg.Type = Confirmable
			msg.Code = GET
			msg.MessageID = 1
			require.NoError(t, msg.Options().Set(URIHost, strings.Repeat("a", length)))

			data, err := Encode(&msg)
			require.NoError(t, err)

			decoded, err := Decode(data)
			require.NoError(t, err)
			require.Equal(t, length, len(decoded.Options()[URIHost].AsString()))
		})
	}
}

func TestOptionValueOver270Rejected(t *testing.T) {
	msg := NewMessage()
	msg.Type = Confirmable
	msg.Code = GET
	msg.MessageID = 1
	require.NoError(t, msg.Options().Set(URIHost, strings.Repeat("a", 271)))

	_, err := Encode(&msg)
	require.ErrorIs(t, err, ErrOptionTooLong)
}

func TestZeroOptionsMessage(t *testing.T) {
	msg := NewMessage()
	msg.Type = Confirmable
	msg.Code = GET
	msg.MessageID = 9

	data, err := Encode(&msg)
	require.NoError(t, err)
	require.Equal(t, byte(0), data[0]&0x0f)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Empty(t, decoded.Options())
}
