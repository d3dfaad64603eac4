package coapmsg

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// maxOptionValueLen is the ceiling on an option value's length: lengths
// above 270 bytes cannot be represented by the single extension byte this
// draft uses (unlike RFC7252's two-byte extended length).
const maxOptionValueLen = 270

// maxOptions is the largest option count the 4-bit header nibble can
// carry, Fencepost entries included.
const maxOptions = 15

// fencepostMaxGapSteps bounds how many Fencepost options a single gap may
// need. Given this draft's option set (numbers 1-19), one Fencepost at
// number 14 always closes any legal gap; the loop is written generally in
// case the recognized option set ever grows, with this as a sanity backstop
// rather than a real expected trip count.
const fencepostMaxGapSteps = 8

// wireOption is one (number, value) pair as it will appear on the wire,
// after Fencepost insertion.
type wireOption struct {
	id    OptionId
	value []byte
}

// buildWireOptions walks msg in canonical order, emitting Token at its
// numeric slot and inserting Fencepost options wherever two
// consecutively-emitted numbers are more than 14 apart (the first option
// counts from 0, as the decoder does). The previous-option-number state
// is the plain local variable `prev`; it always holds an absolute option
// number, never a delta.
func buildWireOptions(msg *Message) ([]wireOption, error) {
	var entries []wireOption
	prev := OptionId(0)

	emit := func(id OptionId, value []byte) error {
		if len(value) > maxOptionValueLen {
			return errors.Wrapf(ErrOptionTooLong, "option %s: length %d", id, len(value))
		}
		steps := 0
		for int(id)-int(prev) > 14 {
			if steps >= fencepostMaxGapSteps {
				return errors.Wrap(ErrTooManyOptions, "fencepost insertion did not converge")
			}
			entries = append(entries, wireOption{id: Fencepost})
			prev = Fencepost
			steps++
		}
		entries = append(entries, wireOption{id: id, value: value})
		prev = id
		if len(entries) > maxOptions {
			return ErrTooManyOptions
		}
		return nil
	}

	for _, id := range canonicalOrder {
		if id == Token {
			if len(msg.Token) == 0 {
				continue
			}
			if len(msg.Token) > 8 {
				return nil, ErrInvalidTokenLen
			}
			if err := emit(Token, msg.Token); err != nil {
				return nil, err
			}
			continue
		}
		opt, ok := msg.Options()[id]
		if !ok {
			continue
		}
		for _, v := range opt.values {
			if err := emit(id, v.AsBytes()); err != nil {
				return nil, err
			}
		}
	}

	return entries, nil
}

// extendLen splits a value length into the 4-bit nibble written inline
// and, when the nibble is the 15 escape, the one extra length byte.
// hasExt reports whether the extra byte is present.
func extendLen(length int) (nibble int, hasExt bool, extByte int) {
	if length <= 14 {
		return length, false, 0
	}
	return 15, true, length - 15
}

// EncodedLen returns the exact byte length Encode(msg) would produce,
// without allocating the output.
func EncodedLen(msg *Message) (int, error) {
	if msg.Type == Reset && (len(msg.Options()) > 0 || len(msg.Token) > 0 || len(msg.Payload) > 0) {
		return 0, ErrInvalidHeader
	}
	entries, err := buildWireOptions(msg)
	if err != nil {
		return 0, err
	}
	n := 4
	for _, e := range entries {
		n++ // option header byte
		_, hasExt, _ := extendLen(len(e.value))
		if hasExt {
			n++
		}
		n += len(e.value)
	}
	n += len(msg.Payload)
	return n, nil
}

// Encode marshals msg into its pre-RFC7252 draft-09 wire form. It is
// pure: it never mutates msg and never changes engine state.
func Encode(msg *Message) ([]byte, error) {
	if msg.Type == Reset && (len(msg.Options()) > 0 || len(msg.Token) > 0 || len(msg.Payload) > 0) {
		return nil, ErrInvalidHeader
	}

	entries, err := buildWireOptions(msg)
	if err != nil {
		return nil, err
	}

	size, err := EncodedLen(msg)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, size))

	buf.WriteByte((1 << 6) | (uint8(msg.Type) << 4) | uint8(len(entries)))
	buf.WriteByte(byte(msg.Code))
	var midBuf [2]byte
	binary.BigEndian.PutUint16(midBuf[:], msg.MessageID)
	buf.Write(midBuf[:])

	prev := OptionId(0)
	for _, e := range entries {
		delta := int(e.id) - int(prev)
		nibble, hasExt, extByte := extendLen(len(e.value))
		buf.WriteByte(byte(delta<<4) | byte(nibble))
		if hasExt {
			buf.WriteByte(byte(extByte))
		}
		buf.Write(e.value)
		prev = e.id
	}

	buf.Write(msg.Payload)
	return buf.Bytes(), nil
}

// Decode parses a wire-format datagram into a logical Message. Fencepost
// options are consumed and discarded; Token is lifted out of the option
// chain into Message.Token.
func Decode(data []byte) (Message, error) {
	msg := NewMessage()
	if len(data) < 4 {
		return msg, ErrShortPacket
	}
	if data[0]>>6 != 1 {
		return msg, ErrBadVersion
	}
	msg.Type = COAPType((data[0] >> 4) & 0x3)
	optCount := int(data[0] & 0x0f)
	msg.Code = COAPCode(data[1])
	msg.MessageID = binary.BigEndian.Uint16(data[2:4])

	b := data[4:]
	prev := OptionId(0)
	haveprev := false

	for i := 0; i < optCount; i++ {
		if len(b) < 1 {
			return msg, ErrShortPacket
		}
		deltaNibble := int(b[0] >> 4)
		lenNibble := int(b[0] & 0x0f)
		b = b[1:]

		length := lenNibble
		if lenNibble == 15 {
			if len(b) < 1 {
				return msg, ErrShortPacket
			}
			length = 15 + int(b[0])
			b = b[1:]
		}
		if len(b) < length {
			return msg, ErrShortPacket
		}
		val := b[:length]
		b = b[length:]

		id := OptionId(int(prev) + deltaNibble)
		if haveprev && deltaNibble == 0 && id == prev {
			if def, ok := optionDefs[id]; !ok || !def.Repeatable {
				return msg, ErrOptionOutOfOrder
			}
		} else if haveprev && id <= prev {
			return msg, ErrOptionOutOfOrder
		}
		prev = id
		haveprev = true

		switch id {
		case Fencepost:
			// Discarded: a pure delta-bridging placeholder.
		case Token:
			msg.Token = append([]byte(nil), val...)
		default:
			if err := msg.Options().Add(id, append([]byte(nil), val...)); err != nil {
				return msg, errors.Wrap(ErrBadOptionLength, err.Error())
			}
		}
	}

	msg.Payload = append([]byte(nil), b...)
	return msg, nil
}
