// Package telemetry receives the datagrams probes send and hands them to the
// event loop one at a time.
package telemetry

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// State is the ingester lifecycle.
type State int

const (
	Unbound State = iota
	Listening
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Listening:
		return "listening"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ListenerError is a bind or socket runtime failure. The session keeps
// running without live telemetry.
type ListenerError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }

// Event is one received datagram. Payload is the datagram body unchanged.
type Event struct {
	Seq     uint64
	From    string
	At      time.Time
	Payload []byte
}

// EventMsg delivers a datagram to the event loop.
type EventMsg struct{ Event Event }

// FailedMsg reports an unrecoverable socket error from the read loop.
type FailedMsg struct{ Err error }

// ClosedMsg is returned by a read that ended because Close was called.
type ClosedMsg struct{}

// Ingester owns the UDP socket. Listen, Fail and Close run on the event
// loop; the socket read runs inside the command returned by ReadCmd, and
// only one read is outstanding at a time.
type Ingester struct {
	bufSize int
	state   State
	conn    net.PacketConn
	addr    string
	seq     uint64
	lastErr error
	now     func() time.Time
}

// NewIngester creates an unbound ingester reading datagrams of up to
// bufSize bytes.
func NewIngester(bufSize int) *Ingester {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &Ingester{bufSize: bufSize, now: time.Now}
}

// State returns the lifecycle state.
func (in *Ingester) State() State {
	return in.state
}

// Addr returns the bound address, or the requested one if binding failed.
func (in *Ingester) Addr() string {
	return in.addr
}

// Err returns the failure that moved the ingester to Failed.
func (in *Ingester) Err() error {
	return in.lastErr
}

// Listen binds host:port. Binding is attempted once; on error the ingester
// is Failed and stays that way.
func (in *Ingester) Listen(host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	in.addr = addr
	if in.state != Unbound {
		return &ListenerError{Op: "listen", Addr: addr, Err: fmt.Errorf("ingester is %s", in.state)}
	}
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		lerr := &ListenerError{Op: "listen", Addr: addr, Err: err}
		in.state = Failed
		in.lastErr = lerr
		return lerr
	}
	in.conn = conn
	in.addr = conn.LocalAddr().String()
	in.state = Listening
	return nil
}

// ReadCmd blocks for the next datagram. The caller re-arms it after every
// EventMsg. It returns nil unless the ingester is Listening.
func (in *Ingester) ReadCmd() tea.Cmd {
	if in.state != Listening {
		return nil
	}
	conn, now := in.conn, in.now
	in.seq++
	seq := in.seq
	buf := make([]byte, in.bufSize)
	return func() tea.Msg {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return ClosedMsg{}
			}
			return FailedMsg{Err: &ListenerError{Op: "read", Addr: conn.LocalAddr().String(), Err: err}}
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		ev := Event{Seq: seq, At: now(), Payload: payload}
		if from != nil {
			ev.From = from.String()
		}
		return EventMsg{Event: ev}
	}
}

// Fail moves a listening ingester to Failed and closes the socket,
// returning any error from the close. It is called by the event loop on
// FailedMsg and does nothing unless the ingester is listening.
func (in *Ingester) Fail(err error) error {
	if in.state != Listening {
		return nil
	}
	in.state = Failed
	in.lastErr = err
	return in.conn.Close()
}

// Close releases the socket. It is safe to call in any state and more than
// once.
func (in *Ingester) Close() error {
	if in.state != Listening {
		if in.state == Unbound {
			in.state = Closed
		}
		return nil
	}
	in.state = Closed
	return in.conn.Close()
}
