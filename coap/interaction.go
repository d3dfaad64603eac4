package coap

import "github.com/lobaro/coap-engine/coapmsg"

// Interaction tracks one outstanding request/response exchange driven
// through an EngineTransport. It is created when RoundTrip sends a
// request and resolved when the matching response arrives via Deliver,
// the way the ack flag used to flip once a bare ACK arrived for a
// Confirmable send; here "acknowledged" means the full response, not just
// the transport-level ACK, has been delivered.
type Interaction struct {
	req          *Request
	acknowledged bool
	response     chan *coapmsg.Message
}

// NewInteraction starts tracking req, ready to receive its response.
func NewInteraction(req *Request) *Interaction {
	return &Interaction{
		req:      req,
		response: make(chan *coapmsg.Message, 1),
	}
}

// Ack reports whether the response has already been delivered.
func (i *Interaction) Ack() bool {
	return i.acknowledged
}

// Resolve delivers msg to whoever is waiting on Wait and marks the
// interaction acknowledged. Resolve is a no-op if already resolved.
func (i *Interaction) Resolve(msg *coapmsg.Message) {
	if i.acknowledged {
		return
	}
	i.acknowledged = true
	select {
	case i.response <- msg:
	default:
	}
}

// Wait returns the interaction's response channel without blocking, so
// RoundTrip can select on it together with context cancellation.
func (i *Interaction) Wait() <-chan *coapmsg.Message {
	return i.response
}
