package harness

import (
	"github.com/rs/xid"

	"github.com/ratelab/ratekit/monitoring"
	"github.com/ratelab/ratekit/multirate/nvm"
	"github.com/ratelab/ratekit/recording"
	"github.com/ratelab/ratekit/sched"
)

// Builder can be used to build a harness.
type Builder struct {
	monitorOn     bool
	monitorPort   int
	traceFileName string
	nvmPath       string
	store         nvm.Store
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithoutMonitoring sets the harness to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithTraceFileName sets the custom output file name for the trace
// recorder.
func (b Builder) WithTraceFileName(filename string) Builder {
	b.traceFileName = filename
	return b
}

// WithNVMPath backs the persisted accumulators with a SQLite database
// at the given path.
func (b Builder) WithNVMPath(path string) Builder {
	b.nvmPath = path
	return b
}

// WithStore backs the persisted accumulators with a caller-provided
// store. Overrides WithNVMPath.
func (b Builder) WithStore(store nvm.Store) Builder {
	b.store = store
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if b.store != nil && b.nvmPath != "" {
		panic("cannot set both a store and an NVM path")
	}
}

// Build builds the harness.
func (b Builder) Build() *Harness {
	b.parametersMustBeValid()

	h := &Harness{
		compNameIndex: make(map[string]int),
	}

	h.id = xid.New().String()

	tracePath := b.traceFileName
	if tracePath == "" {
		tracePath = "multirate_run_" + h.id
	}
	h.recorder = recording.New(tracePath)
	h.recorder.CreateTable(stepTraceTable, StepTrace{})

	h.engine = sched.NewSerialEngine()

	h.store = b.store
	if h.store == nil {
		if b.nvmPath != "" {
			store, err := nvm.NewSQLiteStore(b.nvmPath)
			if err != nil {
				panic(err)
			}
			h.store = store
		} else {
			h.store = nvm.NewMemStore()
		}
	}

	if b.monitorOn {
		h.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			h.monitor.WithPortNumber(b.monitorPort)
		}
		h.monitor.RegisterEngine(h.engine)
		h.monitor.StartServer()
	}

	return h
}
