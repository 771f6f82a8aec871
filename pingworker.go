package rnp

import (
	"context"
	"errors"
	"net"
	"time"

	"golang.org/x/time/rate"
)

// PingWorker drives one of the N concurrent probe loops spec.md §4.3
// describes. Its run shape mirrors TestRunner's `run`/`cycleTargets`
// loop: lock-free between iterations, one brief picker acquisition per
// cycle, then an action and a pacing wait.
type PingWorker struct {
	id     int
	config *WorkerConfig
	picker *PortPicker
	stop   *StopSignal
	client PingClient
	rl     *rate.Limiter // optional run-wide probe governor; nil disables it
	out    chan<- *PingResult
}

// NewPingWorker builds a worker. rl may be nil.
func NewPingWorker(id int, config *WorkerConfig, picker *PortPicker, stop *StopSignal, client PingClient, rl *rate.Limiter, out chan<- *PingResult) *PingWorker {
	return &PingWorker{id: id, config: config, picker: picker, stop: stop, client: client, rl: rl, out: out}
}

// Run prepares the underlying client once, then loops until the picker is
// exhausted or the stop signal fires.
func (w *PingWorker) Run() {
	if err := w.client.Prepare(w.config.Target); err != nil {
		HandleMinorError(err)
		return
	}
	w.runLoop()
}

func (w *PingWorker) runLoop() {
	for {
		port, isWarmup, ok := w.picker.Next()
		if !ok {
			return
		}

		w.runSingle(port, isWarmup)

		if !w.waitForNextSchedule() {
			return
		}
	}
}

func (w *PingWorker) runSingle(port uint16, isWarmup bool) {
	if w.rl != nil {
		_ = w.rl.Wait(context.Background())
	}

	source := &net.TCPAddr{IP: w.config.SourceIP, Port: int(port)}
	details, err := w.client.Ping(source, w.config.Target)

	if errors.Is(err, errAddrInUse) {
		// Silently dropped: spec.md §4.2.1/§4.4. Put the slot back so the
		// run's total budget only counts emitted results (DESIGN.md).
		w.picker.Refund()
		return
	}

	result := NewPingResult(w.id, w.client.Protocol(), w.config.Target, w.config.SourceIP, port, isWarmup, details, err)
	w.out <- result
}

// waitForNextSchedule races ping_interval against the stop signal. If stop
// fires first, the worker exits; otherwise it loops again. This mirrors
// the non-obvious race direction spec.md §4.3/§4.7 calls for: the STOP
// channel firing means "exit", the TIMER firing means "continue".
func (w *PingWorker) waitForNextSchedule() bool {
	timer := time.NewTimer(w.config.PingInterval)
	defer timer.Stop()

	select {
	case <-w.stop.Wait():
		return false
	case <-timer.C:
		return true
	}
}
