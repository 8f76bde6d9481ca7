package sched

import (
	"sync"
)

// A Stepper is an entry point that is invoked once per scheduled step.
type Stepper interface {
	Step()
}

// StepEvent is the event that delivers one invocation of a stepper.
type StepEvent struct {
	EventBase
}

// MakeStepEvent creates a new StepEvent
func MakeStepEvent(handler Handler, time VTimeInSec) StepEvent {
	evt := StepEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time
	evt.secondary = false

	return evt
}

// StepScheduler can help schedule step events at a fixed frequency.
type StepScheduler struct {
	lock      sync.Mutex
	handler   Handler
	Freq      Freq
	Engine    Engine
	secondary bool

	nextStepTime VTimeInSec
}

// NewStepScheduler creates a scheduler for step events.
func NewStepScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *StepScheduler {
	s := new(StepScheduler)

	s.handler = handler
	s.Engine = engine
	s.Freq = freq
	s.nextStepTime = -1 // This will make sure the first step is scheduled

	return s
}

// NewSecondaryStepScheduler creates a scheduler that always schedules
// secondary step events.
func NewSecondaryStepScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *StepScheduler {
	s := new(StepScheduler)

	s.handler = handler
	s.Engine = engine
	s.Freq = freq
	s.secondary = true
	s.nextStepTime = -1

	return s
}

// StepNow schedules a step event at the current time.
func (s *StepScheduler) StepNow() {
	s.lock.Lock()
	time := s.CurrentTime()

	if s.nextStepTime >= time {
		s.lock.Unlock()
		return
	}

	s.nextStepTime = s.Freq.ThisTick(time)
	step := MakeStepEvent(s.handler, s.nextStepTime)

	if s.secondary {
		step.secondary = true
	}

	s.Engine.Schedule(step)
	s.lock.Unlock()
}

// StepLater will schedule a step event at the cycle after the now time.
func (s *StepScheduler) StepLater() {
	s.lock.Lock()
	time := s.Freq.NextTick(s.CurrentTime())

	if s.nextStepTime >= time {
		s.lock.Unlock()
		return
	}

	s.nextStepTime = time
	step := MakeStepEvent(s.handler, s.nextStepTime)

	if s.secondary {
		step.secondary = true
	}

	s.Engine.Schedule(step)
	s.lock.Unlock()
}

// CurrentTime returns the current engine time.
func (s *StepScheduler) CurrentTime() VTimeInSec {
	return s.Engine.CurrentTime()
}

// A PeriodicTask invokes a Stepper once per period until a deadline. A
// programmer only needs to provide the step function; the task keeps
// rescheduling itself.
type PeriodicTask struct {
	*StepScheduler

	name    string
	stepper Stepper
	until   VTimeInSec
}

// NewPeriodicTask creates a task that steps at the given frequency until
// the given deadline. A negative deadline lets the task run as long as
// other events keep the engine alive.
func NewPeriodicTask(
	name string,
	engine Engine,
	freq Freq,
	until VTimeInSec,
	stepper Stepper,
) *PeriodicTask {
	t := new(PeriodicTask)
	t.StepScheduler = NewStepScheduler(t, engine, freq)
	t.name = name
	t.stepper = stepper
	t.until = until

	return t
}

// NewSecondaryPeriodicTask creates a periodic task whose steps are
// secondary events. When it lands on the same instant as a primary
// periodic task, the primary one runs first. Use it for consumer groups
// that should observe the producer's value from the same instant.
func NewSecondaryPeriodicTask(
	name string,
	engine Engine,
	freq Freq,
	until VTimeInSec,
	stepper Stepper,
) *PeriodicTask {
	t := new(PeriodicTask)
	t.StepScheduler = NewSecondaryStepScheduler(t, engine, freq)
	t.name = name
	t.stepper = stepper
	t.until = until

	return t
}

// Name returns the name of the task.
func (t *PeriodicTask) Name() string {
	return t.name
}

// Start schedules the first step of the task.
func (t *PeriodicTask) Start() {
	t.StepNow()
}

// Handle invokes the step function and reschedules the next period.
func (t *PeriodicTask) Handle(e Event) error {
	t.stepper.Step()

	if t.until < 0 || t.Freq.NextTick(t.CurrentTime()) <= t.until {
		t.StepLater()
	}

	return nil
}

// A TriggerTask invokes a Stepper only when explicitly triggered. It
// serves aperiodic rate groups: the trigger can come from another task,
// an external request, or the monitor.
type TriggerTask struct {
	*StepScheduler

	name    string
	stepper Stepper
}

// NewTriggerTask creates a task that steps on demand. Trigger events are
// secondary, so a trigger that lands at the same instant as a periodic
// step runs after it.
func NewTriggerTask(
	name string,
	engine Engine,
	freq Freq,
	stepper Stepper,
) *TriggerTask {
	t := new(TriggerTask)
	t.StepScheduler = NewSecondaryStepScheduler(t, engine, freq)
	t.name = name
	t.stepper = stepper

	return t
}

// Name returns the name of the task.
func (t *TriggerTask) Name() string {
	return t.name
}

// TriggerNow schedules one invocation at the current time.
func (t *TriggerTask) TriggerNow() {
	t.StepNow()
}

// TriggerLater schedules one invocation at the next cycle.
func (t *TriggerTask) TriggerLater() {
	t.StepLater()
}

// Handle invokes the step function once. No rescheduling happens; the
// next invocation needs its own trigger.
func (t *TriggerTask) Handle(e Event) error {
	t.stepper.Step()

	return nil
}
