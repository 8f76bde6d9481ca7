// Package services provides in-process implementations of the value
// service boundary. The fault handling the rate groups refuse to do
// lives here: a service that cannot deliver a fresh value reports a
// status and falls back to the last-known-good value.
package services

import (
	"github.com/ratelab/ratekit/multirate"
	"github.com/ratelab/ratekit/multirate/nvm"
)

// MemoryService is a value service backed by process memory: a scripted
// or constant input source, the cross-rate transfer slot, an output sink
// that remembers everything written, and an NVM store for the persisted
// accumulator.
type MemoryService struct {
	slot  multirate.TransferSlot
	store nvm.Store

	input      float64
	inputQueue []float64
	lastInput  float64

	outputs []float64

	inputStatus    multirate.Status
	transferStatus multirate.Status
}

// NewMemoryService creates a memory-backed value service. A nil store
// gets replaced with a volatile in-memory one.
func NewMemoryService(store nvm.Store) *MemoryService {
	if store == nil {
		store = nvm.NewMemStore()
	}

	return &MemoryService{
		store: store,
	}
}

// SetInput sets the constant input value returned once the scripted
// queue is drained.
func (s *MemoryService) SetInput(v float64) {
	s.input = v
}

// PushInput appends values to the scripted input queue. Each Input call
// consumes one queued value before falling back to the constant.
func (s *MemoryService) PushInput(vs ...float64) {
	s.inputQueue = append(s.inputQueue, vs...)
}

// FailInputWith makes subsequent Input calls report the given status
// while returning the last delivered value. StatusOk clears the fault.
func (s *MemoryService) FailInputWith(status multirate.Status) {
	s.inputStatus = status
}

// FailTransferredWith makes subsequent Transferred calls report the
// given status. The slot value stays readable, so it doubles as the
// last-known-good value.
func (s *MemoryService) FailTransferredWith(status multirate.Status) {
	s.transferStatus = status
}

// Input returns the next scripted value, or the constant input when the
// script is drained. Under an injected fault the last delivered value is
// returned with the fault status.
func (s *MemoryService) Input() (float64, multirate.Status) {
	if !s.inputStatus.IsOk() {
		return s.lastInput, s.inputStatus
	}

	v := s.input
	if len(s.inputQueue) > 0 {
		v = s.inputQueue[0]
		s.inputQueue = s.inputQueue[1:]
	}

	s.lastInput = v

	return v, multirate.StatusOk
}

// Transferred returns the latest value published to the transfer slot.
func (s *MemoryService) Transferred() (float64, multirate.Status) {
	return s.slot.Read(), s.transferStatus
}

// PublishTransfer publishes a value to the transfer slot.
func (s *MemoryService) PublishTransfer(v float64) multirate.Status {
	s.slot.Publish(v)
	return multirate.StatusOk
}

// WriteOutput delivers an output value to the sink.
func (s *MemoryService) WriteOutput(v float64) multirate.Status {
	s.outputs = append(s.outputs, v)
	return multirate.StatusOk
}

// PersistedAccumulator loads the persisted accumulator from the store.
// A store failure surfaces as ServiceUnavailable with the zero default.
func (s *MemoryService) PersistedAccumulator() (float64, multirate.Status) {
	v, err := s.store.Load(multirate.FieldAccumulatorA)
	if err != nil {
		return 0, multirate.StatusServiceUnavailable
	}

	return v, multirate.StatusOk
}

// CommitAccumulator saves the accumulator to the store.
func (s *MemoryService) CommitAccumulator(v float64) multirate.Status {
	err := s.store.Save(multirate.FieldAccumulatorA, v)
	if err != nil {
		return multirate.StatusServiceUnavailable
	}

	return multirate.StatusOk
}

// Outputs returns every value written to the external sink, in order.
func (s *MemoryService) Outputs() []float64 {
	return s.outputs
}

// LastOutput returns the most recently written output, or 0 if nothing
// was written yet.
func (s *MemoryService) LastOutput() float64 {
	if len(s.outputs) == 0 {
		return 0
	}

	return s.outputs[len(s.outputs)-1]
}

// TransferValue exposes the current slot content. Mostly for tests.
func (s *MemoryService) TransferValue() float64 {
	return s.slot.Read()
}
