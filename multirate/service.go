package multirate

// A ValueService is the boundary through which the rate groups reach the
// outside world: external input and output, the cross-rate transfer
// slot, and the persisted accumulator. The computation never learns what
// transport sits behind it.
//
// Every getter must return a usable value even when it reports a non-Ok
// status: implementations keep a last-known-good or default value so the
// arithmetic above never has to branch on availability.
type ValueService interface {
	// Input fetches the current external input for the producer group.
	Input() (float64, Status)

	// Transferred fetches the latest value published to the cross-rate
	// transfer slot.
	Transferred() (float64, Status)

	// PublishTransfer publishes a value to the cross-rate transfer slot.
	PublishTransfer(v float64) Status

	// WriteOutput delivers a computed output to the external sink.
	WriteOutput(v float64) Status

	// PersistedAccumulator fetches the restart-time value of the
	// persisted accumulator.
	PersistedAccumulator() (float64, Status)

	// CommitAccumulator commits the accumulator value for the next
	// restart.
	CommitAccumulator(v float64) Status
}
