package socket

import (
	"net"
	"sync"
)

// UDPSender sends each payload as one datagram to a fixed target.
// The socket is dialed on first use so an unresolvable target only
// fails the sends, not the configuration.
type UDPSender struct {
	Target string

	mu   sync.Mutex
	conn net.Conn
}

// NewUDPSender creates a sender for target (host:port).
func NewUDPSender(target string) *UDPSender {
	return &UDPSender{Target: target}
}

// Send writes payload as a single datagram. Payloads larger than the
// path allows fail; they are never split.
func (s *UDPSender) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, err := net.Dial("udp", s.Target)
		if err != nil {
			return err
		}
		s.conn = conn
	}
	_, err := s.conn.Write(payload)
	return err
}

// Close releases the socket.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
