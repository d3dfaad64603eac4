package coapmsg

import "github.com/pkg/errors"

// ErrBadBlockValue is returned by DecodeBlockOption when a Block1/Block2
// option value cannot be parsed.
var ErrBadBlockValue = errors.New("coapmsg: bad block option value")

// BlockSize returns the block size in bytes for a given SZX:
// block_size = 2^(szx+4).
func BlockSize(szx uint8) int {
	return 1 << (uint(szx) + 4)
}

// EncodeBlockOption packs (blockNum, more, szx) into a Block1/Block2 option
// value: blockNum occupies the upper bits, the low 4 bits are
// [more(1)|szx(3)]. The value is 1, 2 or 3 bytes, the smallest that fits
// blockNum.
func EncodeBlockOption(blockNum uint32, more bool, szx uint8) []byte {
	v := blockNum << 4
	if more {
		v |= 1 << 3
	}
	v |= uint32(szx & 0x7)

	switch {
	case blockNum < 16:
		return []byte{byte(v)}
	case blockNum < 4096:
		return []byte{byte(v >> 8), byte(v)}
	default:
		return []byte{byte(v >> 16), byte(v >> 8), byte(v)}
	}
}

// DecodeBlockOption reverses EncodeBlockOption.
func DecodeBlockOption(value []byte) (blockNum uint32, more bool, szx uint8, err error) {
	if len(value) == 0 || len(value) > 3 {
		return 0, false, 0, ErrBadBlockValue
	}
	var v uint32
	for _, b := range value {
		v = v<<8 | uint32(b)
	}
	blockNum = v >> 4
	more = v&(1<<3) != 0
	szx = uint8(v & 0x7)
	return blockNum, more, szx, nil
}
