package vex

import (
	"errors"
	"math"
	"sync/atomic"
)

// IDSource hands out entry identifiers. Implementations used from several
// goroutines must guarantee uniqueness themselves.
type IDSource interface {
	NextID() (uint32, error)
}

// IDSourceFunc adapts a function to IDSource.
type IDSourceFunc func() (uint32, error)

func (f IDSourceFunc) NextID() (uint32, error) { return f() }

// ErrIDsExhausted is returned once a Counter has handed out its last id.
var ErrIDsExhausted = errors.New("entry id space exhausted")

// Counter is a process-local monotonic id source, safe for concurrent use.
type Counter struct {
	next atomic.Uint64
}

// NewCounter returns a Counter whose first id is start.
func NewCounter(start uint32) *Counter {
	c := &Counter{}
	c.next.Store(uint64(start))
	return c
}

func (c *Counter) NextID() (uint32, error) {
	id := c.next.Add(1) - 1
	if id > math.MaxUint32 {
		return 0, ErrIDsExhausted
	}
	return uint32(id), nil
}

// FixedID always returns the same id. The decoder uses it to re-validate a
// stored record under its existing identifier.
type FixedID uint32

func (f FixedID) NextID() (uint32, error) { return uint32(f), nil }
