package rnp

import (
	"fmt"
	"net"
	"time"
)

// PingClientConfig holds the immutable parameters shared by every probe a
// given worker issues (spec.md §3). The protocol-specific extras exist so
// that non-TCP variants (TLS, QUIC, HTTP — outside this spec's detailed
// scope) can share the same config shape.
type PingClientConfig struct {
	WaitTimeout     time.Duration
	TimeToLive      *int
	CheckDisconnect bool

	ServerName   string
	ALPNProtocol string
	LogTLSKey    bool
}

// PingClientPingResultDetails is what a successful (including timed-out)
// Ping call reports back to the worker.
type PingClientPingResultDetails struct {
	ActualLocalAddr *net.TCPAddr
	RTT             time.Duration
	IsTimedOut      bool
	Warning         error
}

// PingClient is the protocol-agnostic probe contract spec.md §4.2
// describes: a constant protocol tag, one-time preparation, and the
// per-probe ping operation itself.
type PingClient interface {
	Protocol() string
	Prepare(target *net.TCPAddr) error
	Ping(source, target *net.TCPAddr) (*PingClientPingResultDetails, error)
}

// NewPingClient is the factory spec.md §9 calls for: dynamic dispatch over
// the protocol tag selecting a boxed implementation. Only "TCP" is
// implemented; any other protocol tag returns an error.
func NewPingClient(protocol string, config *PingClientConfig) (PingClient, error) {
	switch protocol {
	case "TCP":
		return newTCPPingClient(config), nil
	default:
		return nil, fmt.Errorf("unsupported ping client protocol: %s", protocol)
	}
}
