// Package dedup implements a duplicate-message store: a short-TTL record
// of recently seen (peer, message-id) pairs, so the engine can drop
// inbound retransmissions before they reach the application twice.
package dedup

import (
	"sync"
	"time"

	"github.com/Sirupsen/logrus"
)

// Verdict is the result of CheckAndRecord.
type Verdict int

const (
	// Fresh means no matching record existed (or it had aged out); the
	// message should be delivered and a record was inserted.
	Fresh Verdict = iota
	// Duplicate means a live matching record already existed.
	Duplicate
)

type key struct {
	peer string
	mid uint16
}

type record struct {
	key key
	firstSeen time.Time
}

// Config carries the compile-time knobs for the duplicate store.
type Config struct {
	// Window is DEDUP_WINDOW: how long a record suppresses a repeat.
	Window time.Duration
	// Capacity bounds the number of live records. 0 means unlimited.
	Capacity int
	Logger logrus.FieldLogger
}

// Store is a duplicate-message store.
type Store struct {
	cfg Config
	mu sync.Mutex
	order []*record // FIFO by first_seen_at / insertion order
	byKey map[key]*record
}

// New builds a Store, defaulting Window to 60s.
func New(cfg Config) *Store {
	if cfg.Window <= 0 {
		cfg.Window = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Store{
		cfg: cfg,
		byKey: make(map[key]*record),
	}
}

// CheckAndRecord implements check_and_record: if a live record for
// (peer, messageID) exists, it reports Duplicate; otherwise it inserts a
// fresh record stamped with now and reports Fresh. Capacity overflow
// evicts the oldest record (FIFO by first_seen_at).
func (s *Store) CheckAndRecord(peer string, messageID uint16, now time.Time) Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{peer, messageID}
	if r, ok := s.byKey[k]; ok && now.Sub(r.firstSeen) < s.cfg.Window {
		return Duplicate
	}
	// Either never seen, or the prior record aged out; (re)insert fresh.
	s.evictExpired(k, now)

	if s.cfg.Capacity > 0 && len(s.order) >= s.cfg.Capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byKey, oldest.key)
		s.cfg.Logger.WithFields(logrus.Fields{
			"peer": oldest.key.peer,
			"messageID": oldest.key.mid,
		}).Debug("dedup: evicted at capacity")
	}

	r := &record{key: k, firstSeen: now}
	s.byKey[k] = r
	s.order = append(s.order, r)
	return Fresh
}

// evictExpired drops a stale entry for k from the FIFO slice, if present,
// so a re-insertion doesn't leave a dangling duplicate in s.order.
func (s *Store) evictExpired(k key, now time.Time) {
	old, ok := s.byKey[k]
	if !ok {
		return
	}
	delete(s.byKey, k)
	for i, r := range s.order {
		if r == old {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Reap removes records older than the configured window.
func (s *Store) Reap(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	for _, r := range s.order {
		if now.Sub(r.firstSeen) < s.cfg.Window {
			kept = append(kept, r)
		} else {
			delete(s.byKey, r.key)
		}
	}
	s.order = kept
}

// Len reports the number of live records, mainly for tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
