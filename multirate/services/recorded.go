package services

import (
	"github.com/ratelab/ratekit/multirate"
	"github.com/ratelab/ratekit/recording"
	"github.com/ratelab/ratekit/sched"
)

// BoundaryTrace is one recorded crossing of the value service boundary.
type BoundaryTrace struct {
	Time   float64
	Op     string
	Value  float64
	Status string
}

const boundaryTraceTable = "boundary_trace"

// RecordedService decorates a value service so that every boundary
// crossing lands in the trace recorder, stamped with the scheduler
// time. The decorated service is otherwise transparent.
type RecordedService struct {
	inner      multirate.ValueService
	recorder   recording.Recorder
	timeTeller sched.TimeTeller
}

// NewRecordedService creates the decorator and its trace table.
func NewRecordedService(
	inner multirate.ValueService,
	recorder recording.Recorder,
	timeTeller sched.TimeTeller,
) *RecordedService {
	recorder.CreateTable(boundaryTraceTable, BoundaryTrace{})

	return &RecordedService{
		inner:      inner,
		recorder:   recorder,
		timeTeller: timeTeller,
	}
}

func (s *RecordedService) record(op string, v float64, st multirate.Status) {
	s.recorder.InsertData(boundaryTraceTable, BoundaryTrace{
		Time:   float64(s.timeTeller.CurrentTime()),
		Op:     op,
		Value:  v,
		Status: st.String(),
	})
}

// Input fetches the external input and records the crossing.
func (s *RecordedService) Input() (float64, multirate.Status) {
	v, st := s.inner.Input()
	s.record("input", v, st)
	return v, st
}

// Transferred fetches the slot value and records the crossing.
func (s *RecordedService) Transferred() (float64, multirate.Status) {
	v, st := s.inner.Transferred()
	s.record("transferred", v, st)
	return v, st
}

// PublishTransfer publishes to the slot and records the crossing.
func (s *RecordedService) PublishTransfer(v float64) multirate.Status {
	st := s.inner.PublishTransfer(v)
	s.record("publish_transfer", v, st)
	return st
}

// WriteOutput writes to the sink and records the crossing.
func (s *RecordedService) WriteOutput(v float64) multirate.Status {
	st := s.inner.WriteOutput(v)
	s.record("write_output", v, st)
	return st
}

// PersistedAccumulator loads from NVM and records the crossing.
func (s *RecordedService) PersistedAccumulator() (float64, multirate.Status) {
	v, st := s.inner.PersistedAccumulator()
	s.record("persisted_load", v, st)
	return v, st
}

// CommitAccumulator saves to NVM and records the crossing.
func (s *RecordedService) CommitAccumulator(v float64) multirate.Status {
	st := s.inner.CommitAccumulator(v)
	s.record("persisted_commit", v, st)
	return st
}
