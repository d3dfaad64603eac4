package engine

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Sirupsen/logrus"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/lobaro/coap-engine/blockwise"
	"github.com/lobaro/coap-engine/coapmsg"
	"github.com/lobaro/coap-engine/dedup"
	"github.com/lobaro/coap-engine/retransmit"
)

// Engine is the protocol engine's composition root: it owns a
// retransmission store, a duplicate store and a blockwise sender/
// assembler pair, and drives them from Send, HandleRx and Tick.
//
// An Engine is not safe for concurrent use; independent Engine instances
// with disjoint state are fine, and each is stamped with a UUID purely
// as a logging field so a host running several can tell them apart in
// shared log output.
type Engine struct {
	id uuid.UUID
	cfg Config
	logger logrus.FieldLogger

	retransmits *retransmit.Store
	dedupStore *dedup.Store
	sender *blockwise.Sender
	assembler *blockwise.Assembler

	midMu sync.Mutex
	midRand *rand.Rand
	nextMid uint16
}

// New builds an Engine from cfg, applying retransmission and dedup
// defaults for any zero-valued timing fields.
func New(cfg Config) (*Engine, error) {
	cfg.setDefaults()
	if cfg.Transmit == nil {
		return nil, errors.New("engine: Config.Transmit is required")
	}

	id := uuid.New()
	logger := cfg.Logger.WithField("engine", id.String())

	e := &Engine{
		id: id,
		cfg: cfg,
		logger: logger,
		midRand: rand.New(rand.NewSource(time.Now().UnixNano())),
		retransmits: retransmit.New(retransmit.Config{
			AckTimeout: cfg.AckTimeout,
			AckRandomFactor: cfg.AckRandomFactor,
			MaxRetransmit: cfg.MaxRetransmit,
			Capacity: cfg.RetransmitCapacity,
			Limiter: cfg.RetransmitPaceLimiter,
			Logger: logger,
		}),
		dedupStore: dedup.New(dedup.Config{
			Window: cfg.DedupWindow,
			Capacity: cfg.DedupCapacity,
			Logger: logger,
		}),
		sender: blockwise.NewSender(logger),
		assembler: blockwise.NewAssembler(cfg.MaxIncomingBlockMessageSize, logger),
	}
	e.nextMid = uint16(e.midRand.Intn(1 << 16))
	return e, nil
}

// ID returns the engine instance's log-correlation identifier.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Encode is the pure codec entry point.
func (e *Engine) Encode(msg *coapmsg.Message) ([]byte, error) {
	return coapmsg.Encode(msg)
}

// Decode is the pure codec entry point.
func (e *Engine) Decode(data []byte) (coapmsg.Message, error) {
	return coapmsg.Decode(data)
}

func (e *Engine) nextMessageID() uint16 {
	e.midMu.Lock()
	defer e.midMu.Unlock()
	mid := e.nextMid
	e.nextMid++
	return mid
}

func blockOptionFor(code coapmsg.COAPCode) coapmsg.OptionId {
	if code.IsRequest() {
		return coapmsg.Block1
	}
	return coapmsg.Block2
}

// Send implements the send entry point: encode + transmit +
// (if Confirmable) register retransmission + (if oversize) seed
// blockwise. msg.MessageID is assigned here if it is zero.
func (e *Engine) Send(msg coapmsg.Message, peer string) error {
	if err := coapmsg.Validate(&msg); err != nil {
		return err
	}
	now := e.cfg.Now()

	outgoing := msg
	if e.cfg.MaxBlockwisePayloadSize > 0 && len(msg.Payload) > e.cfg.MaxBlockwisePayloadSize {
		optID := blockOptionFor(msg.Code)
		first, needed, err := e.sender.Seed(peer, msg, e.cfg.MaxBlockwisePayloadSize, optID)
		if err != nil {
			return err
		}
		if needed {
			outgoing = first
		}
	}

	if outgoing.MessageID == 0 {
		outgoing.MessageID = e.nextMessageID()
	}

	data, err := coapmsg.Encode(&outgoing)
	if err != nil {
		return err
	}

	if err := e.cfg.Transmit(peer, data); err != nil {
		return err
	}

	if outgoing.IsConfirmable() {
		if err := e.retransmits.Register(peer, outgoing.MessageID, data, now); err != nil {
			if errors.Is(err, retransmit.ErrFull) {
				return ErrFull
			}
			return err
		}
	}
	return nil
}

// continueBlockwiseSend reacts to an inbound ACK/RST carrying a
// Block1/Block2 option by emitting the retained block whose number that
// option requests. ACK/RST
// messages carry Code == Empty, so Block1 and Block2 are both checked
// directly rather than derived from the code.
func (e *Engine) continueBlockwiseSend(msg *coapmsg.Message, peer string) error {
	for _, optID := range []coapmsg.OptionId{coapmsg.Block1, coapmsg.Block2} {
		opt, ok := msg.Options()[optID]
		if !ok {
			continue
		}
		num, _, _, err := coapmsg.DecodeBlockOption(opt.AsBytes())
		if err != nil {
			return nil
		}
		next, found := e.sender.Next(peer, msg.Token, num)
		if !found {
			return nil
		}
		return e.Send(next, peer)
	}
	return nil
}

// HandleRx implements the handle_rx entry point: decode + dedup +
// ACK-match + blockwise-assemble. It returns nil when nothing is yet
// deliverable to the application (an ACK/RST was consumed, or a blockwise
// assembly is still incomplete). A dropped duplicate is reported as an
// event of kind Duplicate rather than delivered.
func (e *Engine) HandleRx(data []byte, peer string) (*ApplicationEvent, error) {
	now := e.cfg.Now()

	msg, err := coapmsg.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := coapmsg.Validate(&msg); err != nil {
		return nil, err
	}

	if msg.Type == coapmsg.Acknowledgement || msg.Type == coapmsg.Reset {
		e.retransmits.OnAckOrReset(peer, msg.MessageID)
		if err := e.continueBlockwiseSend(&msg, peer); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if e.dedupStore.CheckAndRecord(peer, msg.MessageID, now) == dedup.Duplicate {
		e.logger.WithFields(logrus.Fields{"peer": peer, "messageID": msg.MessageID}).Debug("engine: dropping duplicate")
		return &ApplicationEvent{Kind: Duplicate, Peer: peer, MessageID: msg.MessageID}, nil
	}

	for _, optID := range []coapmsg.OptionId{coapmsg.Block1, coapmsg.Block2} {
		opt, ok := msg.Options()[optID]
		if !ok {
			continue
		}
		num, more, szx, err := coapmsg.DecodeBlockOption(opt.AsBytes())
		if err != nil {
			return nil, err
		}
		complete, payload, err := e.assembler.Append(peer, msg.Token, num, more, szx, msg.Payload, msg, now)
		if err != nil {
			if errors.Is(err, blockwise.ErrTooLarge) {
				return &ApplicationEvent{Kind: BlockwiseTooLarge, Peer: peer, MessageID: msg.MessageID}, nil
			}
			return nil, err
		}
		if !complete {
			return nil, nil
		}
		msg.Payload = payload
		break
	}

	return &ApplicationEvent{Kind: Delivered, Peer: peer, MessageID: msg.MessageID, Message: &msg}, nil
}

// Tick implements the tick entry point: fire due retransmissions,
// reap dedup records, age blockwise states. Retransmission resends are
// transmitted directly; TimedOut notifications are returned for the host
// to deliver to the application.
func (e *Engine) Tick(now time.Time) ([]ApplicationEvent, error) {
	var result error

	events := e.retransmits.Tick(now)
	var appEvents []ApplicationEvent
	for _, ev := range events {
		switch ev.Kind {
		case retransmit.Resend:
			if err := e.cfg.Transmit(ev.Peer, ev.Packet); err != nil {
				result = multierror.Append(result, err)
			}
		case retransmit.TimedOut:
			appEvents = append(appEvents, ApplicationEvent{Kind: TimedOut, Peer: ev.Peer, MessageID: ev.MessageID})
		}
	}

	e.dedupStore.Reap(now)
	e.assembler.Reap(now, e.cfg.BlockwiseIdleTimeout)

	return appEvents, result
}

// Close releases the engine's in-memory state. It always succeeds today;
// the multierror aggregation point is kept so a future backing store
// with real teardown (e.g. persisted retransmission entries) can report
// multiple independent failures at once.
func (e *Engine) Close() error {
	var result *multierror.Error
	return result.ErrorOrNil()
}
