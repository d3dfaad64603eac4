package engine

import "github.com/pkg/errors"

// ErrFull mirrors retransmit.ErrFull at the engine boundary, so callers
// that only import engine don't need to reach into retransmit for the
// sentinel.
var ErrFull = errors.New("engine: retransmission store is full")
