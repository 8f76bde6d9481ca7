// Package multirate implements a two-rate computation unit: a periodic
// producer and an independently scheduled consumer that share state
// through a tear-free transfer slot, with selected state persisted
// across process restarts.
package multirate

import (
	"fmt"

	"github.com/ratelab/ratekit/sched"
)

// Phase is the lifecycle phase of a component.
type Phase int

// The lifecycle phases. There is no way back to Running once the
// component is Terminated.
const (
	PhaseUninitialized Phase = iota
	PhaseRunning
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseRunning:
		return "running"
	case PhaseTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// StepKind tells which rate group an invocation belongs to.
type StepKind int

// The rate groups of the component.
const (
	StepFast StepKind = iota
	StepSlow
)

func (k StepKind) String() string {
	if k == StepFast {
		return "fast"
	}
	return "slow"
}

// StepInfo is the hook payload describing one rate-group invocation.
type StepInfo struct {
	Kind   StepKind
	Input  float64
	Output float64
}

// HookPosStepEnd triggers after a rate-group invocation completed.
var HookPosStepEnd = &sched.HookPos{Name: "StepEnd"}

// Comp is the multi-rate component. The external scheduler calls
// Initialize once, then StepFast and StepSlow on their own cadences,
// then Terminate once. The component itself never blocks, sleeps, or
// spawns; every entry point runs to completion.
type Comp struct {
	sched.HookableBase

	name   string
	svc    ValueService
	policy PersistencePolicy

	state WorkState
	phase Phase
}

// Name returns the name of the component.
func (c *Comp) Name() string {
	return c.name
}

// Phase returns the current lifecycle phase.
func (c *Comp) Phase() Phase {
	return c.phase
}

// State returns a copy of the work state. Mostly useful for tests and
// the monitor; the rate groups mutate the state in place.
func (c *Comp) State() WorkState {
	return c.state
}

// Initialize loads the persisted fields from the value service and moves
// the component to Running. It must be called exactly once: a second
// call would double-apply the persisted load, so it panics instead.
func (c *Comp) Initialize() {
	if c.phase != PhaseUninitialized {
		panic("component " + c.name + " initialized twice")
	}

	// Only AccumulatorA has a persistence channel on the value service.
	// Marking any other field Persisted is a configuration error.
	for field, policy := range c.policy {
		if policy != Persisted {
			continue
		}

		if field != FieldAccumulatorA {
			panic("no persistence channel is wired for field " + field)
		}

		v, _ := c.svc.PersistedAccumulator()
		c.state.AccumulatorA = v
	}

	c.phase = PhaseRunning
}

// Terminate commits the persisted fields to the value service and moves
// the component to Terminated. No retry, no recovery: surfacing a store
// failure is the store's responsibility.
func (c *Comp) Terminate() {
	if c.phase != PhaseRunning {
		panic("component " + c.name + " terminated while " + c.phase.String())
	}

	for field, policy := range c.policy {
		if policy != Persisted {
			continue
		}

		if field != FieldAccumulatorA {
			panic("no persistence channel is wired for field " + field)
		}

		c.svc.CommitAccumulator(c.state.AccumulatorA)
	}

	c.phase = PhaseTerminated
}

// StepFast is the producer rate group. It accumulates the external input
// and publishes the sum to the transfer slot. The accumulator is read
// before it is updated, which gives the group delay-by-one-cycle
// semantics rather than an instantaneous passthrough.
func (c *Comp) StepFast() {
	c.phaseMustAllowStepping()

	in, _ := c.svc.Input()

	sum := in + c.state.AccumulatorA
	c.state.AccumulatorA = sum

	c.svc.PublishTransfer(sum)

	c.InvokeHook(sched.HookCtx{
		Domain: c,
		Pos:    HookPosStepEnd,
		Item:   StepInfo{Kind: StepFast, Input: in, Output: sum},
	})
}

// StepSlow is the consumer rate group. It reads whatever value the
// producer last published, possibly from an earlier cycle, and never
// waits for a fresh one.
func (c *Comp) StepSlow() {
	c.phaseMustAllowStepping()

	in, _ := c.svc.Transferred()

	out := in + c.state.AccumulatorB
	c.state.AccumulatorB = out

	c.svc.WriteOutput(out)

	c.InvokeHook(sched.HookCtx{
		Domain: c,
		Pos:    HookPosStepEnd,
		Item:   StepInfo{Kind: StepSlow, Input: in, Output: out},
	})
}

// Stepping before Initialize operates on the zero-value state. Stepping
// after Terminate is a scheduler bug.
func (c *Comp) phaseMustAllowStepping() {
	if c.phase == PhaseTerminated {
		panic("component " + c.name + " stepped after terminate")
	}
}

// FastStepper adapts the producer entry point to the scheduler's Stepper
// interface.
func (c *Comp) FastStepper() sched.Stepper {
	return fastStepper{c}
}

// SlowStepper adapts the consumer entry point to the scheduler's Stepper
// interface.
func (c *Comp) SlowStepper() sched.Stepper {
	return slowStepper{c}
}

type fastStepper struct {
	c *Comp
}

func (s fastStepper) Step() {
	s.c.StepFast()
}

type slowStepper struct {
	c *Comp
}

func (s slowStepper) Step() {
	s.c.StepSlow()
}
