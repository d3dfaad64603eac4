package blockwise

import (
	"sync"
	"time"

	"github.com/Sirupsen/logrus"
	"github.com/pkg/errors"

	"github.com/lobaro/coap-engine/coapmsg"
)

// ErrTooLarge is returned when an in-progress assembly's buffer would
// exceed MaxIncomingBlockMessageSize.
var ErrTooLarge = errors.New("blockwise: assembled payload exceeds MaxIncomingBlockMessageSize")

type assemblyKey struct {
	peer string
	token string
}

type assembly struct {
	buf []byte
	nextExpected uint32
	szx uint8
	lastMessage coapmsg.Message
	lastUpdate time.Time
}

// Assembler reassembles inbound Block1/Block2 fragments keyed by
// (peer, token) into a single logical payload.
type Assembler struct {
	mu sync.Mutex
	states map[assemblyKey]*assembly
	maxBytes int
	logger logrus.FieldLogger
}

// NewAssembler builds an Assembler. maxBytes is
// MAX_INCOMING_BLOCK_MESSAGE_SIZE; 0 means unbounded.
func NewAssembler(maxBytes int, logger logrus.FieldLogger) *Assembler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Assembler{
		states: make(map[assemblyKey]*assembly),
		maxBytes: maxBytes,
		logger: logger,
	}
}

// Append folds one inbound block into the assembly for (peer, token).
//
// - Out-of-order blocks (blockNum != nextExpected) are silently dropped,
// the peer is expected to retransmit.
// - complete is true once a block with more==false arrives in order; the
// caller should then take payload as the full logical body and drop
// the assembly state (Append already does so internally).
func (a *Assembler) Append(peer string, token []byte, blockNum uint32, more bool, szx uint8, fragment []byte, msg coapmsg.Message, now time.Time) (complete bool, payload []byte, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	k := assemblyKey{peer, string(token)}
	st, ok := a.states[k]
	if !ok {
		st = &assembly{szx: szx}
		a.states[k] = st
	}

	if blockNum != st.nextExpected {
		a.logger.WithFields(logrus.Fields{
			"peer": peer, "expected": st.nextExpected, "got": blockNum,
		}).Debug("blockwise: dropping out-of-order block")
		return false, nil, nil
	}

	if a.maxBytes > 0 && len(st.buf)+len(fragment) > a.maxBytes {
		delete(a.states, k)
		return false, nil, ErrTooLarge
	}

	st.buf = append(st.buf, fragment...)
	st.nextExpected++
	st.lastMessage = msg
	st.lastUpdate = now

	if !more {
		delete(a.states, k)
		return true, st.buf, nil
	}
	return false, nil, nil
}

// Reap drops assembly states that haven't been touched within idleTimeout.
func (a *Assembler) Reap(now time.Time, idleTimeout time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for k, st := range a.states {
		if now.Sub(st.lastUpdate) > idleTimeout {
			delete(a.states, k)
		}
	}
}

// Len reports the number of in-flight assemblies, mainly for tests.
func (a *Assembler) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.states)
}
