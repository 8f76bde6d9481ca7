// Package cmd provides the command-line interface for running a
// multi-rate component under the reference scheduler.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/ratelab/ratekit/harness"
	"github.com/ratelab/ratekit/multirate"
	"github.com/ratelab/ratekit/multirate/services"
	"github.com/ratelab/ratekit/sched"
)

var (
	fastHz      float64
	slowHz      float64
	duration    float64
	input       float64
	nvmPath     string
	tracePath   string
	monitorPort int
	noMonitor   bool
	openBrowser bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "mrun",
	Short: "mrun runs a two-rate accumulate-and-forward component " +
		"under the reference scheduler.",
	Long: `mrun builds a multi-rate component, schedules its fast and ` +
		`slow rate groups at the requested frequencies, runs the ` +
		`timeline to the requested duration, and persists the fast ` +
		`accumulator for the next run.`,
	Run: runComponent,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	_ = godotenv.Load()

	rootCmd.Flags().Float64Var(&fastHz, "fast-hz", 10,
		"frequency of the fast rate group in Hz")
	rootCmd.Flags().Float64Var(&slowHz, "slow-hz", 2,
		"frequency of the slow rate group in Hz")
	rootCmd.Flags().Float64Var(&duration, "duration", 1,
		"length of the run in seconds")
	rootCmd.Flags().Float64Var(&input, "input", 1,
		"constant external input value")
	rootCmd.Flags().StringVar(&nvmPath, "nvm", os.Getenv("MRUN_NVM"),
		"SQLite path for the persisted accumulator; empty keeps it volatile")
	rootCmd.Flags().StringVar(&tracePath, "trace", "",
		"file name for the step trace database")
	rootCmd.Flags().IntVar(&monitorPort, "monitor-port", 0,
		"port of the monitoring server; 0 picks a random one")
	rootCmd.Flags().BoolVar(&noMonitor, "no-monitor", false,
		"disable the monitoring server")
	rootCmd.Flags().BoolVar(&openBrowser, "open-browser", false,
		"open the monitoring page in the default browser")
}

func runComponent(_ *cobra.Command, _ []string) {
	b := harness.MakeBuilder()
	if noMonitor {
		b = b.WithoutMonitoring()
	} else if monitorPort > 0 {
		b = b.WithMonitorPort(monitorPort)
	}
	if nvmPath != "" {
		b = b.WithNVMPath(nvmPath)
	}
	if tracePath != "" {
		b = b.WithTraceFileName(tracePath)
	}

	h := b.Build()
	atexit.Register(h.Terminate)

	engine := h.Engine()

	memSvc := services.NewMemoryService(h.Store())
	memSvc.SetInput(input)

	svc := services.NewRecordedService(memSvc, h.Recorder(), engine)

	comp := multirate.MakeBuilder().
		WithService(svc).
		Build("MultiRateComp")
	h.RegisterComponent(comp)

	comp.Initialize()

	until := sched.VTimeInSec(duration)
	fast := sched.NewPeriodicTask("MultiRateComp.Fast",
		engine, sched.Freq(fastHz), until, comp.FastStepper())
	slow := sched.NewSecondaryPeriodicTask("MultiRateComp.Slow",
		engine, sched.Freq(slowHz), until, comp.SlowStepper())

	h.RegisterTask(slow.Name(), triggerableTask{slow})

	fast.Start()
	slow.Start()

	if !noMonitor && openBrowser {
		h.Monitor().OpenBrowser()
	}

	err := engine.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %s\n", err)
		atexit.Exit(1)
	}
	engine.Finished()

	state := comp.State()
	fmt.Printf("run %s finished at %.3fs\n", h.ID(), engine.CurrentTime())
	fmt.Printf("  AccumulatorA = %g\n", state.AccumulatorA)
	fmt.Printf("  AccumulatorB = %g\n", state.AccumulatorB)
	fmt.Printf("  last output  = %g\n", memSvc.LastOutput())
}

// triggerableTask lets the monitor schedule an extra step of a periodic
// task.
type triggerableTask struct {
	t *sched.PeriodicTask
}

func (t triggerableTask) TriggerNow() {
	t.t.StepNow()
}
