// Package harness wires an engine, a trace recorder, an NVM store, and
// a monitor around multi-rate components, so a run can be assembled in a
// few lines.
package harness

import (
	"github.com/ratelab/ratekit/monitoring"
	"github.com/ratelab/ratekit/multirate"
	"github.com/ratelab/ratekit/multirate/nvm"
	"github.com/ratelab/ratekit/recording"
	"github.com/ratelab/ratekit/sched"
)

// A Harness provides the services required to run a set of multi-rate
// components.
type Harness struct {
	id string

	engine   sched.Engine
	recorder recording.Recorder
	monitor  *monitoring.Monitor
	store    nvm.Store

	components    []*multirate.Comp
	compNameIndex map[string]int
}

// ID returns the run ID of the harness.
func (h *Harness) ID() string {
	return h.id
}

// Engine returns the engine driving the run.
func (h *Harness) Engine() sched.Engine {
	return h.engine
}

// Recorder returns the step-trace recorder of the run.
func (h *Harness) Recorder() recording.Recorder {
	return h.recorder
}

// Monitor returns the monitor of the run, or nil if monitoring is off.
func (h *Harness) Monitor() *monitoring.Monitor {
	return h.monitor
}

// Store returns the NVM store backing the persisted accumulators.
func (h *Harness) Store() nvm.Store {
	return h.store
}

// RegisterComponent registers a component with the harness. Its step
// results start flowing into the trace recorder, and the monitor learns
// about it.
func (h *Harness) RegisterComponent(c *multirate.Comp) {
	name := c.Name()
	if _, found := h.compNameIndex[name]; found {
		panic("component " + name + " already registered")
	}

	h.components = append(h.components, c)
	h.compNameIndex[name] = len(h.components) - 1

	c.AcceptHook(&stepTraceHook{
		recorder:   h.recorder,
		timeTeller: h.engine,
		component:  name,
	})

	if h.monitor != nil {
		h.monitor.RegisterComponent(c)
	}
}

// RegisterTask makes a task triggerable through the monitor.
func (h *Harness) RegisterTask(name string, t monitoring.Triggerable) {
	if h.monitor != nil {
		h.monitor.RegisterTask(name, t)
	}
}

// GetComponentByName returns the component with the given name.
func (h *Harness) GetComponentByName(name string) *multirate.Comp {
	return h.components[h.compNameIndex[name]]
}

// Terminate terminates every running component, flushes the recorder,
// and closes the NVM store.
func (h *Harness) Terminate() {
	for _, c := range h.components {
		if c.Phase() == multirate.PhaseRunning {
			c.Terminate()
		}
	}

	h.recorder.Flush()

	err := h.store.Close()
	if err != nil {
		panic(err)
	}
}

// StepTrace is one recorded rate-group invocation.
type StepTrace struct {
	Time      float64
	Component string
	Kind      string
	Input     float64
	Output    float64
}

const stepTraceTable = "step_trace"

// stepTraceHook forwards every completed step of a component into the
// trace recorder.
type stepTraceHook struct {
	recorder   recording.Recorder
	timeTeller sched.TimeTeller
	component  string
}

func (h *stepTraceHook) Func(ctx sched.HookCtx) {
	if ctx.Pos != multirate.HookPosStepEnd {
		return
	}

	info, ok := ctx.Item.(multirate.StepInfo)
	if !ok {
		return
	}

	h.recorder.InsertData(stepTraceTable, StepTrace{
		Time:      float64(h.timeTeller.CurrentTime()),
		Component: h.component,
		Kind:      info.Kind.String(),
		Input:     info.Input,
		Output:    info.Output,
	})
}
