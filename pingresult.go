package rnp

import (
	"fmt"
	"net"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// PingResult is an immutable record of one probe attempt. Exactly one of
// {success, IsTimedOut, Err} holds.
type PingResult struct {
	PingTime time.Time
	WorkerID int
	Protocol string
	Target   *net.TCPAddr
	Source   *net.TCPAddr
	IsWarmup bool

	RTT        time.Duration
	IsTimedOut bool
	Err        *PingError
}

// NewPingResult builds a result, substituting the configured source IP and
// requested port when the client could not report the address it actually
// bound to (spec.md §4.4).
func NewPingResult(workerID int, protocol string, target *net.TCPAddr, configuredSourceIP net.IP, requestedSourcePort uint16, isWarmup bool, details *PingClientPingResultDetails, clientErr error) *PingResult {
	r := &PingResult{
		PingTime: NowUTC(),
		WorkerID: workerID,
		Protocol: protocol,
		Target:   target,
		IsWarmup: isWarmup,
	}

	if details != nil {
		r.RTT = details.RTT
		r.IsTimedOut = details.IsTimedOut
		if details.ActualLocalAddr != nil {
			r.Source = details.ActualLocalAddr
		}
	}
	if r.Source == nil {
		r.Source = &net.TCPAddr{IP: configuredSourceIP, Port: int(requestedSourcePort)}
	}

	if pe, ok := clientErr.(*PingError); ok {
		r.Err = pe
	}

	return r
}

// IsPreparationError reports whether this result's failure was a local
// socket preparation failure rather than a remote interaction failure.
func (r *PingResult) IsPreparationError() bool {
	return r.Err != nil && r.Err.Kind == PreparationFailed
}

func (r *PingResult) errorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func rttMillis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func warmupSign(isWarmup bool) string {
	if isWarmup {
		return " (warmup)"
	}
	return ""
}

// FormatConsole renders the human-readable console line for this result,
// matching the four exact shapes spec.md §4.5.1 / §8 scenarios 1-4.
func (r *PingResult) FormatConsole() string {
	target := r.Target.String()
	source := r.Source.String()
	warmup := warmupSign(r.IsWarmup)

	switch {
	case r.Err != nil && r.Err.Kind == PreparationFailed:
		return fmt.Sprintf("Unable to perform ping to %s %s from %s%s, because failing to prepare local socket: Error = %s",
			r.Protocol, target, source, warmup, r.errorMessage())
	case r.Err != nil:
		return fmt.Sprintf("Reaching %s %s from %s%s failed: %s",
			r.Protocol, target, source, warmup, r.errorMessage())
	case r.IsTimedOut:
		return fmt.Sprintf("Reaching %s %s from %s%s failed: Timed out, RTT = %.2fms",
			r.Protocol, target, source, warmup, rttMillis(r.RTT))
	default:
		return fmt.Sprintf("Reaching %s %s from %s%s succeeded: RTT=%.2fms",
			r.Protocol, target, source, warmup, rttMillis(r.RTT))
	}
}

// FormatJSON renders the exact JSON-line record spec.md §6 and §8
// scenario 5 specify: fixed field order, several booleans quoted as
// strings. Hand-built rather than encoding/json — see DESIGN.md.
func (r *PingResult) FormatJSON() string {
	return fmt.Sprintf(
		`{"utcTime":"%s","protocol":"%s","workerId":%d,"targetIP":"%s","targetPort":"%d","sourceIP":"%s","sourcePort":"%d","isWarmup":"%t","roundTripTimeInMs":%.2f,"isTimedOut":"%t","error":"%s","isPreparationError":"%t"}`,
		r.PingTime.Format(timestampLayout),
		r.Protocol,
		r.WorkerID,
		r.Target.IP.String(), r.Target.Port,
		r.Source.IP.String(), r.Source.Port,
		r.IsWarmup,
		rttMillis(r.RTT),
		r.IsTimedOut,
		r.errorMessage(),
		r.IsPreparationError(),
	)
}

// FormatCSV renders the exact CSV-line record spec.md §6 specifies: no
// header, only the error field quoted.
func (r *PingResult) FormatCSV() string {
	return fmt.Sprintf(
		"%s,%d,%s,%s,%d,%s,%d,%t,%.2f,%t,\"%s\",%t",
		r.PingTime.Format(timestampLayout),
		r.WorkerID,
		r.Protocol,
		r.Target.IP.String(), r.Target.Port,
		r.Source.IP.String(), r.Source.Port,
		r.IsWarmup,
		rttMillis(r.RTT),
		r.IsTimedOut,
		r.errorMessage(),
		r.IsPreparationError(),
	)
}
