package rotctl

import (
	"bufio"
	"context"
	"io"
	"log"
	"net"
	"time"
)

// Positioner is the state the protocol reads and writes.  Implemented by
// rotator.Store.
type Positioner interface {
	// SetPosition stores both axis targets from one command, clamped.
	SetPosition(azDeg, elDeg int)

	// Position returns the current physical degree reading of both axes.
	Position() (azDeg, elDeg int)
}

// DefaultIdleTimeout tears down sessions that go quiet.  Teardown has no
// effect on mechanical state.
const DefaultIdleTimeout = 5 * time.Minute

// Server accepts persistent rotctl sessions on a TCP port.  Each session
// runs on its own goroutine; command handling never blocks on motion, it
// only touches the position store.
type Server struct {
	Addr        string
	IdleTimeout time.Duration

	pos Positioner
	ln  net.Listener
}

// NewServer returns a server for the given listen address.
func NewServer(addr string, pos Positioner, idle time.Duration) *Server {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Server{Addr: addr, IdleTimeout: idle, pos: pos}
}

// Listen binds the port.  Called implicitly by Serve if needed; exposed so
// callers can learn the bound address before serving (":0" in tests).
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// ListenAddr returns the bound address, or nil before Listen.
func (s *Server) ListenAddr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts sessions until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Println("rotctl: accept:", err)
			return err
		}
		go s.session(conn)
	}
}

// session reads newline-terminated lines until the peer goes away or the
// idle timeout fires.  Unrecognized commands produce no reply at all;
// rotctld-compatible clients expect silence, not an error line.
func (s *Server) session(conn net.Conn) {
	defer conn.Close()
	sc := bufio.NewScanner(conn)
	for {
		conn.SetReadDeadline(time.Now().Add(s.IdleTimeout))
		if !sc.Scan() {
			break
		}
		cmd := ParseLine(sc.Text())
		switch cmd.Kind {
		case Query:
			az, el := s.pos.Position()
			commandsTotal.WithLabelValues("query").Inc()
			if _, err := io.WriteString(conn, QueryResponse(az, el)); err != nil {
				log.Println("rotctl: write:", err)
				return
			}
		case SetPosition:
			s.pos.SetPosition(cmd.Az, cmd.El)
			commandsTotal.WithLabelValues("set").Inc()
			if _, err := io.WriteString(conn, SetResponse); err != nil {
				log.Println("rotctl: write:", err)
				return
			}
		default:
			commandsTotal.WithLabelValues("unrecognized").Inc()
		}
	}
	if err := sc.Err(); err != nil {
		log.Println("rotctl: session torn down:", err)
	}
}
