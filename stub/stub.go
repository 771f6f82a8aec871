// Package stub implements the demo TCP accept/read/close server spec.md §1
// calls "used only by tests" — an external collaborator to the probing
// core, mentioned there only because it shapes the ping client's
// interface. Grounded on reflector.go and
// original_source/src/stub_servers/stub_server_tcp.rs, re-targeted from
// UDP rate-limited echo to a plain TCP accept/read/close loop. Go's
// blocking I/O with a goroutine per connection replaces the Rust
// original's manual non-blocking poll loop — the idiomatic equivalent.
package stub

import "net"

// Config describes how the stub server should behave once a connection
// arrives.
type Config struct {
	// Address to listen on, e.g. "127.0.0.1:0" for an ephemeral port.
	Address string
	// RejectImmediately closes the accepted connection without reading,
	// simulating a peer that hangs up right after the handshake completes.
	RejectImmediately bool
}

// Server is a running stub listener.
type Server struct {
	ln  *net.TCPListener
	cfg Config
}

// Listen starts a stub server in the background and returns once it is
// accepting connections.
func Listen(cfg Config) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, err
	}

	s := &Server{ln: ln.(*net.TCPListener), cfg: cfg}
	go s.run()
	return s, nil
}

// Addr returns the address the server is actually listening on.
func (s *Server) Addr() *net.TCPAddr {
	return s.ln.Addr().(*net.TCPAddr)
}

// Close stops the server, unblocking run's Accept loop.
func (s *Server) Close() error {
	return s.ln.Close()
}

func (s *Server) run() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	if s.cfg.RejectImmediately {
		return
	}

	buf := make([]byte, 256)
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}
	}
}
