package coap

import (
	"bytes"
	"io/ioutil"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/lobaro/coap-engine/coapmsg"
	"github.com/lobaro/coap-engine/engine"
)

// EngineTransport is a RoundTripper that drives requests through an
// engine.Engine instead of talking to a datagram socket directly: it is
// the net/http-shaped front the coap package exposes to applications,
// wired to the protocol engine's entry points. The host is still
// responsible for the datagram I/O itself and must call Deliver with
// every Delivered event HandleRx produces for requests sent through
// this transport.
type EngineTransport struct {
	Engine *engine.Engine
	Peer string
	Tokens TokenGenerator

	mu sync.Mutex
	pending map[string]*Interaction
}

// NewEngineTransport builds a transport that sends every request to peer
// through e.
func NewEngineTransport(e *engine.Engine, peer string) *EngineTransport {
	return &EngineTransport{
		Engine: e,
		Peer: peer,
		Tokens: NewRandomTokenGenerator(),
		pending: make(map[string]*Interaction),
	}
}

func methodCode(method string) coapmsg.COAPCode {
	switch method {
	case "POST":
		return coapmsg.POST
	case "PUT":
		return coapmsg.PUT
	case "DELETE":
		return coapmsg.DELETE
	default:
		return coapmsg.GET
	}
}

// peerFor resolves the engine peer address for req: the transport's
// pinned Peer if set, otherwise the request URL's host, canonicalized to
// always carry an explicit port the way net/http's Transport does.
func (t *EngineTransport) peerFor(req *Request) string {
	if t.Peer != "" {
		return t.Peer
	}
	return canonicalAddr(req.URL)
}

// RoundTrip sends req through the engine and blocks until the matching
// response is Deliver()ed or req's context is done.
func (t *EngineTransport) RoundTrip(req *Request) (*Response, error) {
	peer := t.peerFor(req)

	msg := coapmsg.NewMessage()
	msg.Type = coapmsg.NonConfirmable
	if req.Confirmable {
		msg.Type = coapmsg.Confirmable
	}
	msg.Code = methodCode(req.Method)
	msg.Token = t.Tokens.NextToken()
	msg.SetPathString(strings.TrimPrefix(req.URL.Path, "/"))
	for id, opt := range req.Options {
		for _, v := range opt.Values() {
			msg.Options().Add(id, v.AsBytes())
		}
	}

	body, err := ioutil.ReadAll(req.Body)
	req.closeBody()
	if err != nil {
		return nil, errors.Wrap(err, "coap: reading request body")
	}
	msg.Payload = body

	key := string(msg.Token)
	interaction := NewInteraction(req)
	t.mu.Lock()
	t.pending[key] = interaction
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, key)
		t.mu.Unlock()
	}()

	if err := t.Engine.Send(msg, peer); err != nil {
		return nil, errors.Wrap(err, "coap: engine send")
	}

	select {
	case resp := <-interaction.Wait():
		return responseFromMessage(resp), nil
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
}

// Deliver feeds a Delivered ApplicationEvent from Engine.HandleRx to the
// Interaction awaiting the response with the matching token, if any.
// Events for other tokens (unsolicited requests, already-timed-out
// exchanges) are ignored; the host's resource dispatcher handles those.
func (t *EngineTransport) Deliver(ev *engine.ApplicationEvent) {
	if ev == nil || ev.Kind != engine.Delivered || ev.Message == nil {
		return
	}
	key := string(ev.Message.Token)
	t.mu.Lock()
	interaction, ok := t.pending[key]
	t.mu.Unlock()
	if !ok {
		return
	}
	interaction.Resolve(ev.Message)
}

func responseFromMessage(msg *coapmsg.Message) *Response {
	return &Response{
		Status: msg.Code.String(),
		StatusCode: int(msg.Code),
		Body: ioutil.NopCloser(bytes.NewReader(msg.Payload)),
	}
}
