package coapmsg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsUndefinedType(t *testing.T) {
	msg := NewMessage()
	msg.Type = COAPType(7) // only 0-3 are defined
	msg.Code = GET
	require.ErrorIs(t, Validate(&msg), ErrInvalidHeader)
}

func TestValidateRejectsUndefinedCode(t *testing.T) {
	msg := NewMessage()
	msg.Type = Confirmable
	msg.Code = COAPCode(7)
	require.ErrorIs(t, Validate(&msg), ErrBadCode)
}

func TestValidateRejectsOversizeToken(t *testing.T) {
	msg := NewMessage()
	msg.Type = Confirmable
	msg.Code = GET
	msg.Token = make([]byte, 9)
	require.ErrorIs(t, Validate(&msg), ErrInvalidTokenLen)
}

func TestValidateRejectsOptionsOnReset(t *testing.T) {
	msg := NewMessage()
	msg.Type = Reset
	msg.Code = Empty
	require.NoError(t, msg.Options().Set(URIPath, "x"))
	require.ErrorIs(t, Validate(&msg), ErrInvalidHeader)
}

func TestValidateRejectsResponseOnlyOptionOnRequest(t *testing.T) {
	msg := NewMessage()
	msg.Type = Confirmable
	msg.Code = GET
	require.NoError(t, msg.Options().Set(LocationPath, "x"))
	require.ErrorIs(t, Validate(&msg), ErrBadCode)
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	msg := NewMessage()
	msg.Type = Confirmable
	msg.Code = GET
	msg.SetPathString("temp")
	require.NoError(t, Validate(&msg))
}
