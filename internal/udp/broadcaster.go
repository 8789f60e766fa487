// Package udp carries framed pinger messages over datagrams: a
// Broadcaster for outbound observation reports and a Listener for
// inbound beacon position updates.
package udp

import (
	"fmt"
	"net"
)

// Broadcaster sends framed messages to a fixed destination address.
type Broadcaster struct {
	dest string
	conn *net.UDPConn
}

// NewBroadcaster resolves dest and opens the sending socket.
func NewBroadcaster(dest string) (*Broadcaster, error) {
	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}

	return &Broadcaster{
		dest: dest,
		conn: conn,
	}, nil
}

// Send writes one datagram. Empty payloads are dropped silently.
func (b *Broadcaster) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	_, err := b.conn.Write(payload)
	return err
}

// Dest returns the destination address the broadcaster was built with.
func (b *Broadcaster) Dest() string { return b.dest }

// Close releases the socket.
func (b *Broadcaster) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
