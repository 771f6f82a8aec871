package rnp

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// tcpPingClient is the TCP variant of the ping-client contract, spec.md
// §4.2.1. It leans on net.Dialer + Control rather than raw socket(2)/
// bind(2)/connect(2) calls: Control runs on the freshly created socket
// before bind(2) and connect(2) are issued, and a failed bind(2) is
// recognized by the syscall name the dial error carries, which separates a
// bind-phase failure from a connect-phase one without a second syscall
// layer.
type tcpPingClient struct {
	config *PingClientConfig
}

func newTCPPingClient(config *PingClientConfig) *tcpPingClient {
	return &tcpPingClient{config: config}
}

func (c *tcpPingClient) Protocol() string {
	return "TCP"
}

// Prepare is a no-op for TCP; there is no DNS resolution or credential
// loading to do once per run.
func (c *tcpPingClient) Prepare(target *net.TCPAddr) error {
	return nil
}

func (c *tcpPingClient) Ping(source, target *net.TCPAddr) (*PingClientPingResultDetails, error) {
	var connectStart time.Time

	dialer := &net.Dialer{
		LocalAddr: source,
		Control: func(_, _ string, rawConn syscall.RawConn) error {
			var sockErr error
			ctrlErr := rawConn.Control(func(fd uintptr) {
				if !c.config.CheckDisconnect {
					sockErr = unix.SetsockoptLinger(int(fd), unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 1, Linger: 0})
					if sockErr != nil {
						return
					}
				}
				if c.config.TimeToLive != nil {
					sockErr = setTTL(fd, source, *c.config.TimeToLive)
				}
			})
			if ctrlErr != nil {
				return ctrlErr
			}
			if sockErr != nil {
				return sockErr
			}
			// Option setting succeeded; the clock for RTT starts here,
			// right before bind(2) and connect(2).
			connectStart = time.Now()
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.WaitTimeout)
	defer cancel()

	conn, err := dialer.DialContext(ctx, "tcp", target.String())
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, errAddrInUse
		}
		var sysErr *os.SyscallError
		if connectStart.IsZero() || (errors.As(err, &sysErr) && sysErr.Syscall == "bind") {
			// Socket creation or one of our own setsockopt calls failed,
			// or bind(2) rejected the source address: a preparation
			// failure either way.
			return nil, newPreparationError(err)
		}
		if isTimeoutErr(err) {
			return &PingClientPingResultDetails{RTT: time.Since(connectStart), IsTimedOut: true}, nil
		}
		return nil, newPingFailedError(err)
	}
	defer conn.Close()

	rtt := time.Since(connectStart)

	var localAddr *net.TCPAddr
	if a, ok := conn.LocalAddr().(*net.TCPAddr); ok {
		localAddr = a
	}

	var warning error
	if c.config.CheckDisconnect {
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			_ = tcpConn.SetReadDeadline(time.Now().Add(c.config.WaitTimeout))
			warning = drainAfterHalfClose(tcpConn)
		}
	}

	return &PingClientPingResultDetails{
		ActualLocalAddr: localAddr,
		RTT:             rtt,
		IsTimedOut:      false,
		Warning:         warning,
	}, nil
}

// setTTL applies ttl to the freshly-bound socket, picking the IPv4 or IPv6
// option depending on which family source belongs to.
func setTTL(fd uintptr, source *net.TCPAddr, ttl int) error {
	if source.IP.To4() != nil {
		return unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TTL, ttl)
	}
	return unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_UNICAST_HOPS, ttl)
}

func isTimeoutErr(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// drainAfterHalfClose half-closes the write side then reads until the peer
// closes its own side, per spec.md §4.2.1 step 4. Any error here is a
// warning, never a failure — the probe already succeeded.
func drainAfterHalfClose(conn *net.TCPConn) error {
	if err := conn.CloseWrite(); err != nil {
		return err
	}

	buf := make([]byte, 128)
	for {
		_, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
