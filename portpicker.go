package rnp

import "sync"

// PortPicker hands out (source_port, is_warmup) pairs to ping workers,
// guaranteeing a strictly sequential, wrapping walk of the configured port
// range with no skipping — the port-rotation middle-boxes are probed
// against depends on this sequence being exact. Mutex discipline mirrors
// the short-critical-section locking TestRunner used for its target list.
type PortPicker struct {
	mu sync.Mutex

	minPort, maxPort uint16
	nextPort         uint16

	remainingWarmup int64
	remainingTotal  int64 // -1 means unbounded
	exhausted       bool
}

// NewPortPicker builds a picker over the inclusive [minPort, maxPort]
// range. warmup is the count of leading probes flagged is_warmup=true.
// total is the overall probe budget; pass a negative value for unbounded.
func NewPortPicker(minPort, maxPort uint16, warmup int64, total int64) *PortPicker {
	return &PortPicker{
		minPort:         minPort,
		maxPort:         maxPort,
		nextPort:        minPort,
		remainingWarmup: warmup,
		remainingTotal:  total,
	}
}

// Next returns the next (source_port, is_warmup) pair, or ok=false once the
// total budget is exhausted — from which point it returns ok=false forever.
func (p *PortPicker) Next() (port uint16, isWarmup bool, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.exhausted || p.remainingTotal == 0 {
		p.exhausted = true
		return 0, false, false
	}

	port = p.nextPort
	isWarmup = p.remainingWarmup > 0

	if p.nextPort == p.maxPort {
		p.nextPort = p.minPort
	} else {
		p.nextPort++
	}

	if p.remainingWarmup > 0 {
		p.remainingWarmup--
	}
	if p.remainingTotal > 0 {
		p.remainingTotal--
	}

	return port, isWarmup, true
}

// Refund puts one slot back into the total budget. Callers use this when a
// probe is silently dropped (AddrInUse on bind) so that the budget is only
// actually consumed by probes that produce an emitted result — see
// DESIGN.md's reconciliation of spec.md §4.1 and §9.
func (p *PortPicker) Refund() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.remainingTotal >= 0 {
		p.remainingTotal++
	}
	// A refund can never un-exhaust a picker that already returned false
	// for an unrelated reason other than hitting zero; but since the only
	// way remainingTotal reaches 0 is via Next, and exhausted is only set
	// once remainingTotal==0, a refund arriving after exhaustion simply
	// reopens the budget by one, which is correct: the caller is telling
	// us the slot it just consumed was never actually used.
	if p.remainingTotal > 0 {
		p.exhausted = false
	}
}
