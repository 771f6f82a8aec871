package rnp

import (
	"sync"

	"golang.org/x/time/rate"
)

// resultChannelBuffer bounds the multi-producer/single-consumer result
// channel spec.md §5 calls for. A small buffer absorbs scheduling jitter
// across workers without weakening the back-pressure policy (§4.3): once
// full, worker sends block, which is the point.
const resultChannelBuffer = 64

// Scheduler spawns N ping workers, awaits their join, and drives the
// processor chain to completion — spec.md §4.6. Grounded on TestRunner's
// rate-limiter wiring and Scraper's sync.WaitGroup fan-out join.
type Scheduler struct {
	run        *RunConfig
	worker     *WorkerConfig
	processors []Processor
	stop       *StopSignal
}

// NewScheduler builds a scheduler for one probing run.
func NewScheduler(run *RunConfig, worker *WorkerConfig, processors []Processor, stop *StopSignal) *Scheduler {
	return &Scheduler{run: run, worker: worker, processors: processors, stop: stop}
}

// Run blocks until every worker has exited (picker exhaustion or stop
// signal) and every processor has finalized.
func (s *Scheduler) Run() error {
	picker := NewPortPicker(s.run.SrcPortMin, s.run.SrcPortMax, int64(s.run.Warmup), s.run.Total)

	var limiter *rate.Limiter
	if s.run.GlobalRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.run.GlobalRateLimit), 1)
	}

	results := make(chan *PingResult, resultChannelBuffer)

	var wg sync.WaitGroup
	for i := 0; i < s.run.Workers; i++ {
		client, err := NewPingClient(s.worker.Protocol, s.worker.PingClientConfig)
		if err != nil {
			return err
		}

		worker := NewPingWorker(i, s.worker, picker, s.stop, client, limiter, results)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run()
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		for _, p := range s.processors {
			p.Process(result)
		}
	}

	for _, p := range s.processors {
		p.Done()
	}

	return nil
}
