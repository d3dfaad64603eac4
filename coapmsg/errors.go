package coapmsg

import "github.com/pkg/errors"

// Input errors: the caller handed the codec something it cannot turn
// into a valid message, either while encoding or decoding.
var (
	ErrInvalidHeader = errors.New("coapmsg: invalid header")
	ErrBadVersion = errors.New("coapmsg: bad version")
	ErrBadCode = errors.New("coapmsg: bad code")
	ErrBadOptionLength = errors.New("coapmsg: bad option length")
	ErrOptionOutOfOrder = errors.New("coapmsg: option out of order")
	ErrTooManyOptions = errors.New("coapmsg: too many options")
	ErrShortPacket = errors.New("coapmsg: short packet")
	ErrInvalidTokenLen = errors.New("coapmsg: invalid token length")
	ErrOptionTooLong = errors.New("coapmsg: option value too long")
)
