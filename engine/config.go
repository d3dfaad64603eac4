// Package engine wires the header/options codec, retransmission store,
// duplicate store and blockwise sender/assembler into the Engine's entry
// points: Encode, Decode, Send, HandleRx and Tick.
package engine

import (
	"time"

	"github.com/Sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Config is the per-engine configuration record: every compile-time knob
// is an ordinary field here, and the host's callbacks are passed in
// explicitly rather than installed once via a global init call. Multiple
// Engines, each with its own Config, may coexist in one process.
type Config struct {
	// MaxBlockwisePayloadSize is MAX_BLOCKWISE_PAYLOAD_SIZE: the block
	// size used when chunking an oversized outbound payload. It must be
	// one of 16, 32, 64, 128, 256, 512, 1024. Zero disables blockwise
	// entirely: every payload is sent unfragmented in a single message.
	MaxBlockwisePayloadSize int

	// MaxIncomingBlockMessageSize is MAX_INCOMING_BLOCK_MESSAGE_SIZE: the
	// ceiling on a reassembled inbound payload. Zero means unbounded.
	MaxIncomingBlockMessageSize int

	// BlockwiseIdleTimeout bounds how long an incomplete inbound assembly
	// is kept before Tick reaps it.
	BlockwiseIdleTimeout time.Duration

	// ACK_TIMEOUT, ACK_RANDOM_FACTOR, MAX_RETRANSMIT.
	AckTimeout time.Duration
	AckRandomFactor float64
	MaxRetransmit int
	// RetransmitCapacity bounds in-flight Confirmable sends. 0 = unbounded.
	RetransmitCapacity int
	// RetransmitPaceLimiter, if set, caps how many due retransmissions a
	// single Tick call re-emits, so a tick after a long host stall
	// doesn't flood the transport with every overdue packet at once.
	RetransmitPaceLimiter *rate.Limiter

	// DEDUP_WINDOW. DedupCapacity bounds live records; 0 = unbounded.
	DedupWindow time.Duration
	DedupCapacity int

	// Now returns the current time. Defaults to time.Now. Hosts running
	// deterministic tests can substitute a fake clock here.
	Now func() time.Time

	// Transmit is the host-provided datagram send callback
	// ("transmit(peer_address, packet_bytes, length)"). It must be
	// non-blocking or the host accepts the added latency on every
	// engine call that ends up transmitting.
	Transmit func(peer string, packet []byte) error

	Logger logrus.FieldLogger
}

func (c *Config) setDefaults() {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	if c.AckTimeout <= 0 {
		c.AckTimeout = 2 * time.Second
	}
	if c.AckRandomFactor <= 0 {
		c.AckRandomFactor = 1.5
	}
	if c.MaxRetransmit <= 0 {
		c.MaxRetransmit = 4
	}
	if c.DedupWindow <= 0 {
		c.DedupWindow = 60 * time.Second
	}
	if c.BlockwiseIdleTimeout <= 0 {
		// 247s is the classic CoAP EXCHANGE_LIFETIME figure (max transmit
		// span plus twice the assumed max latency).
		c.BlockwiseIdleTimeout = 247 * time.Second
	}
}
