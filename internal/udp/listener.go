package udp

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/signalsfoundry/pinger-simulator/internal/logging"
	"github.com/signalsfoundry/pinger-simulator/internal/wire"
)

// maxDatagram comfortably covers the largest position-set frame.
const maxDatagram = 1024

// PositionHandler is invoked for every valid inbound position-set
// frame. It runs on the listener goroutine.
type PositionHandler func(wire.PositionSet)

// Listener receives position-set datagrams and dispatches them to a
// handler. Malformed frames are logged and dropped; they never stop the
// listener.
type Listener struct {
	conn    *net.UDPConn
	handler PositionHandler
	log     logging.Logger
}

// NewListener binds the listening socket.
func NewListener(listenAddr string, handler PositionHandler, log logging.Logger) (*Listener, error) {
	if handler == nil {
		return nil, fmt.Errorf("udp listener: handler is required")
	}
	if log == nil {
		log = logging.Noop()
	}

	addr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve listen addr: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}

	return &Listener{conn: conn, handler: handler, log: log}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr { return l.conn.LocalAddr() }

// Run reads datagrams until the context is cancelled or the socket is
// closed. It closes the socket on the way out.
func (l *Listener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read udp: %w", err)
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])

		ps, err := wire.DecodePositionSet(frame)
		if err != nil {
			l.log.Warn(ctx, "dropping malformed position frame",
				logging.String("from", from.String()),
				logging.Error(err),
			)
			continue
		}

		l.handler(ps)
	}
}
