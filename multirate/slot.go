package multirate

import (
	"math"
	"sync/atomic"
)

// A TransferSlot is the register that moves a value produced at one rate
// to a consumer running at a different rate. It has a single writer and
// any number of readers. A read observes either the previous or the new
// value, never a torn one, so the producer and the consumer may run on
// different execution contexts without extra locking.
type TransferSlot struct {
	bits atomic.Uint64
}

// Publish stores a new value in the slot.
func (s *TransferSlot) Publish(v float64) {
	s.bits.Store(math.Float64bits(v))
}

// Read returns the most recently published value. Reading a slot that
// was never published returns 0.
func (s *TransferSlot) Read() float64 {
	return math.Float64frombits(s.bits.Load())
}
