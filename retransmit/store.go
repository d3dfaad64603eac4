// Package retransmit tracks in-flight Confirmable messages and drives
// their exponential-backoff resends, the way coap.EngineTransport tracks
// outstanding tokens but for the wire-level retry timer instead.
package retransmit

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/Sirupsen/logrus"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrFull is returned by Register when the store has no free slot.
var ErrFull = errors.New("retransmit: store is full")

// EventKind distinguishes a due resend from a final timeout notification.
type EventKind int

const (
	// Resend means the packet should be handed to the transport again.
	Resend EventKind = iota
	// TimedOut means attempts are exhausted; the entry has been removed.
	TimedOut
)

// Event is one outcome of a Tick call.
type Event struct {
	Kind EventKind
	Peer string
	MessageID uint16
	Packet []byte
}

type entry struct {
	peer string
	messageID uint16
	packet []byte
	nextSendAt time.Time
	delay time.Duration
	attemptsRemaining int
	seq uint64
}

// Config carries the compile-time knobs for the retransmission store.
type Config struct {
	AckTimeout time.Duration
	AckRandomFactor float64
	MaxRetransmit int
	// Capacity bounds the number of in-flight entries. 0 means unlimited.
	Capacity int
	// Limiter, if set, paces how many due resends Tick emits in one call,
	// so a tick following a long host stall doesn't blast the transport
	// with every overdue packet at once.
	Limiter *rate.Limiter
	Rand *rand.Rand
	Logger logrus.FieldLogger
}

// Store is a retransmission store: it schedules exponential-backoff
// resends for Confirmable messages until they're acknowledged or time out.
type Store struct {
	cfg Config
	mu sync.Mutex
	entries []*entry
	nextSeq uint64
}

// New builds a Store, filling in the usual CoAP defaults for any
// zero-valued timing fields.
func New(cfg Config) *Store {
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 2 * time.Second
	}
	if cfg.AckRandomFactor <= 0 {
		cfg.AckRandomFactor = 1.5
	}
	if cfg.MaxRetransmit <= 0 {
		cfg.MaxRetransmit = 4
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Store{cfg: cfg}
}

// Register allocates a retransmission entry for a freshly sent Confirmable
// message. The initial delay is chosen uniformly in
// [AckTimeout, AckTimeout*AckRandomFactor].
func (s *Store) Register(peer string, messageID uint16, packet []byte, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Capacity > 0 && len(s.entries) >= s.cfg.Capacity {
		return ErrFull
	}

	span := float64(s.cfg.AckTimeout) * (s.cfg.AckRandomFactor - 1)
	delay := s.cfg.AckTimeout
	if span > 0 {
		delay += time.Duration(s.cfg.Rand.Float64() * span)
	}

	s.nextSeq++
	e := &entry{
		peer: peer,
		messageID: messageID,
		packet: packet,
		nextSendAt: now.Add(delay),
		delay: delay,
		attemptsRemaining: s.cfg.MaxRetransmit,
		seq: s.nextSeq,
	}
	s.entries = append(s.entries, e)
	s.cfg.Logger.WithFields(logrus.Fields{
		"peer": peer,
		"messageID": messageID,
		"delay": delay,
	}).Debug("retransmit: registered")
	return nil
}

// OnAckOrReset cancels the entry matching (peer, messageID), if any.
// It reports whether a matching entry was found.
func (s *Store) OnAckOrReset(peer string, messageID uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.peer == peer && e.messageID == messageID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.cfg.Logger.WithFields(logrus.Fields{
				"peer": peer,
				"messageID": messageID,
			}).Debug("retransmit: matched, cancelling")
			return true
		}
	}
	return false
}

// Tick walks entries whose next_send_at has elapsed, yielding a Resend
// event (and rescheduling with a doubled delay) while attempts remain, or a
// TimedOut event (and removing the entry) once they're exhausted.
//
// Tie-breaks among entries with equal next_send_at use registration order.
func (s *Store) Tick(now time.Time) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*entry
	for _, e := range s.entries {
		if !e.nextSendAt.After(now) {
			due = append(due, e)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].nextSendAt.Equal(due[j].nextSendAt) {
			return due[i].seq < due[j].seq
		}
		return due[i].nextSendAt.Before(due[j].nextSendAt)
	})

	var events []Event
	remove := make(map[uint64]bool)
	for _, e := range due {
		if s.cfg.Limiter != nil && !s.cfg.Limiter.AllowN(now, 1) {
			continue
		}
		if e.attemptsRemaining > 0 {
			events = append(events, Event{Kind: Resend, Peer: e.peer, MessageID: e.messageID, Packet: e.packet})
			e.nextSendAt = e.nextSendAt.Add(e.delay)
			e.delay *= 2
			e.attemptsRemaining--
		} else {
			events = append(events, Event{Kind: TimedOut, Peer: e.peer, MessageID: e.messageID})
			remove[e.seq] = true
			s.cfg.Logger.WithFields(logrus.Fields{
				"peer": e.peer,
				"messageID": e.messageID,
			}).Warn("retransmit: timed out")
		}
	}

	if len(remove) > 0 {
		kept := s.entries[:0]
		for _, e := range s.entries {
			if !remove[e.seq] {
				kept = append(kept, e)
			}
		}
		s.entries = kept
	}

	return events
}

// Len reports the number of in-flight entries, mainly for tests and
// diagnostics.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
