// Package monitoring exposes a running multi-rate harness over HTTP for
// inspection and manual control.
package monitoring

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/ratelab/ratekit/multirate"
	"github.com/ratelab/ratekit/sched"
)

// A Triggerable is a task that the monitor can invoke on demand.
type Triggerable interface {
	TriggerNow()
}

// Monitor turns a run into a server that allows external inspection and
// controlling of the rate groups.
type Monitor struct {
	engine     sched.Engine
	components []*multirate.Comp
	tasks      map[string]Triggerable
	portNumber int
	url        string
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		tasks: make(map[string]Triggerable),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine that drives the run.
func (m *Monitor) RegisterEngine(e sched.Engine) {
	m.engine = e
}

// RegisterComponent registers a component to be monitored.
func (m *Monitor) RegisterComponent(c *multirate.Comp) {
	m.components = append(m.components, c)
}

// RegisterTask registers a task that can be triggered through the
// monitor.
func (m *Monitor) RegisterTask(name string, t Triggerable) {
	m.tasks[name] = t
}

// StartServer starts the monitor as a web server with a custom port if
// wanted.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/run", m.run)
	r.HandleFunc("/api/components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.componentDetails)
	r.HandleFunc("/api/step/{name}", m.step)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring run with %s\n", m.url)

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()
}

// OpenBrowser opens the monitor page in the default browser.
func (m *Monitor) OpenBrowser() {
	err := browser.OpenURL(m.url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open browser: %s\n", err)
	}
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.engine.CurrentTime()
	fmt.Fprintf(w, "{\"now\":%.10f}", now)
}

func (m *Monitor) run(_ http.ResponseWriter, _ *http.Request) {
	go func() {
		err := m.engine.Run()
		if err != nil {
			panic(err)
		}
	}()
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, c := range m.components {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "\"%s\"", c.Name())
	}
	fmt.Fprint(w, "]")
}

type componentDetails struct {
	Name  string             `json:"name"`
	Phase string             `json:"phase"`
	State map[string]float64 `json:"state"`
}

func (m *Monitor) componentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	c := m.findComponentOr404(w, name)
	if c == nil {
		return
	}

	state := c.State()
	details := componentDetails{
		Name:  c.Name(),
		Phase: c.Phase().String(),
		State: state.Snapshot(),
	}

	err := json.NewEncoder(w).Encode(details)
	dieOnErr(err)
}

func (m *Monitor) step(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	task, found := m.tasks[name]
	if !found {
		w.WriteHeader(404)
		return
	}

	task.TriggerNow()
	w.WriteHeader(200)
}

func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) *multirate.Comp {
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(404)

	return nil
}

func dieOnErr(err error) {
	if err != nil {
		panic(err)
	}
}
