package rnp

import "sync"

// StopSignal is a broadcast, level-triggered event: once Set, it stays set,
// and every observer's Wait channel fires immediately thereafter. It
// generalizes the single `stop chan bool` each component in this package
// used to carry on its own into one reusable, safely-repeatable-Set type.
type StopSignal struct {
	once sync.Once
	ch   chan struct{}
}

// NewStopSignal returns an unset signal.
func NewStopSignal() *StopSignal {
	return &StopSignal{ch: make(chan struct{})}
}

// Set latches the signal. Safe to call more than once or concurrently;
// only the first call has any effect.
func (s *StopSignal) Set() {
	s.once.Do(func() { close(s.ch) })
}

// Wait returns a channel that is closed once Set has been called.
func (s *StopSignal) Wait() <-chan struct{} {
	return s.ch
}

// IsSet reports whether Set has already been called, without blocking.
func (s *StopSignal) IsSet() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
