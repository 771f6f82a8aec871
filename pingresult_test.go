package rnp

import (
	"net"
	"testing"
	"time"
)

func mustTCPAddr(t *testing.T, s string) *net.TCPAddr {
	t.Helper()
	addr, err := net.ResolveTCPAddr("tcp", s)
	if err != nil {
		t.Fatalf("failed to resolve %q: %v", s, err)
	}
	return addr
}

func baseResult(t *testing.T) *PingResult {
	return &PingResult{
		PingTime: time.Date(2021, 7, 6, 9, 10, 11, 12*int(time.Millisecond), time.UTC),
		WorkerID: 1,
		Protocol: "TCP",
		Target:   mustTCPAddr(t, "1.2.3.4:443"),
		Source:   mustTCPAddr(t, "5.6.7.8:8080"),
	}
}

// Scenario 1: success line, warmup=true.
func TestFormatConsoleSuccess(t *testing.T) {
	r := baseResult(t)
	r.IsWarmup = true
	r.RTT = 10 * time.Millisecond

	want := "Reaching TCP 1.2.3.4:443 from 5.6.7.8:8080 (warmup) succeeded: RTT=10.00ms"
	if got := r.FormatConsole(); got != want {
		t.Errorf("FormatConsole() = %q, want %q", got, want)
	}
}

// Scenario 2: timeout line.
func TestFormatConsoleTimeout(t *testing.T) {
	r := baseResult(t)
	r.RTT = 1000 * time.Millisecond
	r.IsTimedOut = true

	want := "Reaching TCP 1.2.3.4:443 from 5.6.7.8:8080 failed: Timed out, RTT = 1000.00ms"
	if got := r.FormatConsole(); got != want {
		t.Errorf("FormatConsole() = %q, want %q", got, want)
	}
}

// Scenario 3: ping failure line.
func TestFormatConsolePingFailed(t *testing.T) {
	r := baseResult(t)
	r.Err = newPingFailedError(errString("connect failed"))

	want := "Reaching TCP 1.2.3.4:443 from 5.6.7.8:8080 failed: connect failed"
	if got := r.FormatConsole(); got != want {
		t.Errorf("FormatConsole() = %q, want %q", got, want)
	}
}

// Scenario 4: preparation failure line.
func TestFormatConsolePreparationFailed(t *testing.T) {
	r := baseResult(t)
	r.Err = newPreparationError(errString("address in use"))

	want := "Unable to perform ping to TCP 1.2.3.4:443 from 5.6.7.8:8080, because failing to prepare local socket: Error = address in use"
	if got := r.FormatConsole(); got != want {
		t.Errorf("FormatConsole() = %q, want %q", got, want)
	}

	if !r.IsPreparationError() {
		t.Error("expected IsPreparationError() to be true")
	}
}

// Scenario 5: JSON round-trip for scenario 1's tuple.
func TestFormatJSONSuccess(t *testing.T) {
	r := baseResult(t)
	r.IsWarmup = true
	r.RTT = 10 * time.Millisecond

	want := `{"utcTime":"2021-07-06T09:10:11.012Z","protocol":"TCP","workerId":1,"targetIP":"1.2.3.4","targetPort":"443","sourceIP":"5.6.7.8","sourcePort":"8080","isWarmup":"true","roundTripTimeInMs":10.00,"isTimedOut":"false","error":"","isPreparationError":"false"}`
	if got := r.FormatJSON(); got != want {
		t.Errorf("FormatJSON() =\n%s\nwant\n%s", got, want)
	}

	// Round-trip law: repeated invocations are byte-identical.
	if r.FormatJSON() != r.FormatJSON() {
		t.Error("FormatJSON() is not deterministic across repeated calls")
	}
}

func TestFormatCSVQuotesOnlyError(t *testing.T) {
	r := baseResult(t)
	r.RTT = 0
	r.Err = newPingFailedError(errString("connect failed"))

	want := `2021-07-06T09:10:11.012Z,1,TCP,1.2.3.4,443,5.6.7.8,8080,false,0.00,false,"connect failed",false`
	if got := r.FormatCSV(); got != want {
		t.Errorf("FormatCSV() = %q, want %q", got, want)
	}

	if r.FormatCSV() != r.FormatCSV() {
		t.Error("FormatCSV() is not deterministic across repeated calls")
	}
}

// errString is a minimal error for building test fixtures without pulling
// in errors.New at every call site.
type errString string

func (e errString) Error() string { return string(e) }
