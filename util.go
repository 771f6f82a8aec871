package rnp

import (
	"log"
	"time"

	uuid "github.com/satori/go.uuid"
)

const (
	// DefaultWaitTimeout bounds a single probe's connect attempt.
	DefaultWaitTimeout = 1 * time.Second
	// DefaultPingInterval paces successive probes from one worker.
	DefaultPingInterval = 1 * time.Second
	// DefaultDedupeWindow is how long the console processor remembers a
	// repeated failure/timeout line before printing it again verbatim.
	DefaultDedupeWindow = 5 * time.Second
)

// NewRunID returns 10 bytes of a new UUID4 as a string, used to tag a run's
// console banner. File-backed sinks are not tagged with it.
//
// This should be unique enough for short-lived cases, but as it's only a
// partial UUID4.
func NewRunID() string {
	full := uuid.NewV4()
	last10 := full[len(full)-10:]
	return string(last10)
}

// HandleMinorError logs a non-fatal error and continues.
func HandleMinorError(err error) {
	if err != nil {
		log.Println("ERROR: ", err)
	}
}

// HandleFatalError logs err and exits the process if it is non-nil.
func HandleFatalError(err error) {
	if err != nil {
		log.Fatal("ERROR: ", err)
	}
}

// NowUTC returns the current time in UTC, millisecond precision, matching
// the resolution PingResult.PingTime is specified to carry.
func NowUTC() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
