package engine

import "github.com/lobaro/coap-engine/coapmsg"

// EventKind enumerates the application-visible outcomes of HandleRx:
// protocol-level events, not errors, surfaced the same way.
type EventKind int

const (
	// Delivered means a complete logical message (possibly reassembled
	// from several blockwise fragments) is ready for the application.
	Delivered EventKind = iota
	// Duplicate means an inbound retransmission was suppressed.
	Duplicate
	// TimedOut means a Confirmable send exhausted its retransmissions
	// without an ACK/RST.
	TimedOut
	// BlockwiseTooLarge means an inbound assembly exceeded
	// MaxIncomingBlockMessageSize and was discarded.
	BlockwiseTooLarge
)

// ApplicationEvent is what HandleRx and Tick hand back to the host for
// delivery to the upper layer.
type ApplicationEvent struct {
	Kind EventKind
	Peer string
	MessageID uint16
	// Message is populated only for Delivered.
	Message *coapmsg.Message
}
