package coap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lobaro/coap-engine/coapmsg"
	"github.com/lobaro/coap-engine/engine"
)

// loopback wires two engines' Transmit callbacks directly together, so a
// Send on one immediately appears as bytes the other can HandleRx, without
// any real datagram socket.
type loopback struct {
	deliverTo func(data []byte, from string)
}

func (l *loopback) transmit(peer string, data []byte) error {
	l.deliverTo(data, peer)
	return nil
}

func TestEngineTransportRoundTrip(t *testing.T) {
	now := time.Unix(0, 0)

	var serverEngine *engine.Engine
	clientSide := &loopback{}
	serverSide := &loopback{}

	clientEngine, err := engine.New(engine.Config{
		Now:      func() time.Time { return now },
		Transmit: func(peer string, data []byte) error { return clientSide.transmit(peer, data) },
	})
	require.NoError(t, err)

	serverEngine, err = engine.New(engine.Config{
		Now:      func() time.Time { return now },
		Transmit: func(peer string, data []byte) error { return serverSide.transmit(peer, data) },
	})
	require.NoError(t, err)

	tr := NewEngineTransport(clientEngine, "server")

	clientSide.deliverTo = func(data []byte, _ string) {
		ev, err := serverEngine.HandleRx(data, "client")
		require.NoError(t, err)
		require.NotNil(t, ev)
		require.Equal(t, engine.Delivered, ev.Kind)

		resp := coapmsg.NewMessage()
		resp.Type = coapmsg.NonConfirmable
		resp.Code = coapmsg.Content
		resp.Token = ev.Message.Token
		resp.Payload = []byte("22.5 C")
		require.NoError(t, serverEngine.Send(resp, "client"))
	}
	serverSide.deliverTo = func(data []byte, _ string) {
		ev, err := clientEngine.HandleRx(data, "server")
		require.NoError(t, err)
		tr.Deliver(ev)
	}

	req, err := NewRequest("GET", "coap://server/temp", nil)
	require.NoError(t, err)

	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, coapmsg.Content.String(), resp.Status)
}
