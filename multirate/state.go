package multirate

// Field names of the work state. Persistence policy and NVM storage key
// on these names.
const (
	FieldAccumulatorA = "AccumulatorA"
	FieldAccumulatorB = "AccumulatorB"
)

// WorkState holds the accumulators of the rate groups. Each accumulator
// is owned exclusively by its rate group and is mutated only inside that
// group's invocation. It is the sole carrier of the group's history.
type WorkState struct {
	AccumulatorA float64
	AccumulatorB float64
}

// Snapshot returns the state as a field-name-keyed map.
func (s *WorkState) Snapshot() map[string]float64 {
	return map[string]float64{
		FieldAccumulatorA: s.AccumulatorA,
		FieldAccumulatorB: s.AccumulatorB,
	}
}

// Restore overwrites the fields present in the map. Absent fields keep
// their current value.
func (s *WorkState) Restore(m map[string]float64) {
	if v, ok := m[FieldAccumulatorA]; ok {
		s.AccumulatorA = v
	}
	if v, ok := m[FieldAccumulatorB]; ok {
		s.AccumulatorB = v
	}
}

// Policy decides whether a state field survives a process restart.
type Policy int

// The possible persistence policies of a state field.
const (
	Transient Policy = iota
	Persisted
)

func (p Policy) String() string {
	if p == Persisted {
		return "persisted"
	}
	return "transient"
}

// PersistencePolicy maps each state field to its persistence policy.
// Keeping the mapping as data makes the save/restore asymmetry of an
// instance an explicit configuration choice instead of an accident.
type PersistencePolicy map[string]Policy

// DefaultPolicy persists the fast group's accumulator only. The slow
// group's history is lost across restarts.
func DefaultPolicy() PersistencePolicy {
	return PersistencePolicy{
		FieldAccumulatorA: Persisted,
		FieldAccumulatorB: Transient,
	}
}
