// Package blockwise implements blockwise transfer: the send-side chunking
// of an oversized payload into numbered Block1/Block2 fragments, and the
// receive-side reassembly of those fragments back into one logical
// payload.
package blockwise

import (
	"sync"

	"github.com/Sirupsen/logrus"
	"github.com/pkg/errors"

	"github.com/lobaro/coap-engine/coapmsg"
)

// ErrBadBlockSize is returned when a requested block size isn't one of the
// SZX-representable sizes (16, 32, 64, ..., 1024).
var ErrBadBlockSize = errors.New("blockwise: block size must be a power of two between 16 and 1024")

// SZXForBlockSize reverses coapmsg.BlockSize: it finds the szx such that
// 2^(szx+4) == size.
func SZXForBlockSize(size int) (uint8, error) {
	for szx := uint8(0); szx <= 6; szx++ {
		if coapmsg.BlockSize(szx) == size {
			return szx, nil
		}
	}
	return 0, ErrBadBlockSize
}

type senderKey struct {
	peer string
	token string
}

type outgoing struct {
	template coapmsg.Message // Type/Code/Token/other options to replay per block
	optID coapmsg.OptionId
	blocks [][]byte
	szx uint8
}

// Sender holds payloads that have been split into blocks and are waiting
// to be drip-fed out as the peer acknowledges each one.
type Sender struct {
	mu sync.Mutex
	pending map[senderKey]*outgoing
	logger logrus.FieldLogger
}

// NewSender builds a Sender.
func NewSender(logger logrus.FieldLogger) *Sender {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Sender{
		pending: make(map[senderKey]*outgoing),
		logger: logger,
	}
}

// cloneBlock builds the message to send for one block: the template's
// Type/Code/Token/other options, with optID set to the block's Block1 or
// Block2 value and Payload set to the block's bytes. MessageID is left
// zero; the caller (engine) assigns a fresh one per block.
func cloneBlock(template coapmsg.Message, optID coapmsg.OptionId, payload []byte, blockNum uint32, more bool, szx uint8) coapmsg.Message {
	msg := coapmsg.NewMessage()
	msg.Type = template.Type
	msg.Code = template.Code
	msg.Token = template.Token
	for id, opt := range template.Options() {
		if id == optID {
			continue
		}
		for _, v := range opt.Values() {
			msg.Options().Add(id, v.AsBytes())
		}
	}
	msg.Options().Set(optID, coapmsg.EncodeBlockOption(blockNum, more, szx))
	msg.Payload = payload
	return msg
}

// Seed slices template.Payload into blockSize-sized chunks and retains all
// but the first, which is returned (as a full message ready to send) along
// with needed=true. needed is false when the payload already fits in one
// block and the caller should send template unfragmented.
func (s *Sender) Seed(peer string, template coapmsg.Message, blockSize int, optID coapmsg.OptionId) (first coapmsg.Message, needed bool, err error) {
	if len(template.Payload) <= blockSize {
		return template, false, nil
	}
	szx, err := SZXForBlockSize(blockSize)
	if err != nil {
		return coapmsg.Message{}, false, err
	}

	var blocks [][]byte
	payload := template.Payload
	for off := 0; off < len(payload); off += blockSize {
		end := off + blockSize
		if end > len(payload) {
			end = len(payload)
		}
		blocks = append(blocks, payload[off:end])
	}

	s.mu.Lock()
	s.pending[senderKey{peer, string(template.Token)}] = &outgoing{
		template: template,
		optID: optID,
		blocks: blocks[1:],
		szx: szx,
	}
	s.mu.Unlock()

	more := len(blocks) > 1
	s.logger.WithFields(logrus.Fields{"peer": peer, "blocks": len(blocks)}).Debug("blockwise: seeded send")
	return cloneBlock(template, optID, blocks[0], 0, more, szx), true, nil
}

// Next returns the message carrying the blockNum'th retained block, for
// (re-)emission when the peer's ACK requests it.
func (s *Sender) Next(peer string, token []byte, blockNum uint32) (msg coapmsg.Message, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := senderKey{peer, string(token)}
	out, ok := s.pending[k]
	if !ok || blockNum == 0 {
		return coapmsg.Message{}, false
	}
	// out.blocks holds blocks[1:] of the original slice, so blockNum N
	// (N>=1) lives at index N-1.
	idx := int(blockNum) - 1
	if idx < 0 || idx >= len(out.blocks) {
		return coapmsg.Message{}, false
	}
	more := idx < len(out.blocks)-1
	msg = cloneBlock(out.template, out.optID, out.blocks[idx], blockNum, more, out.szx)
	if !more {
		delete(s.pending, k)
	}
	return msg, true
}

// Abandon discards any pending blocks for (peer, token), e.g. after a
// transfer is cancelled.
func (s *Sender) Abandon(peer string, token []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, senderKey{peer, string(token)})
}
