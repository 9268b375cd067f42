package socket

import (
	"errors"
	"net"
	"time"

	"github.com/fwojciec/httpmon"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConns caps the number of TCP subscribers accepted at once.
const DefaultMaxConns = 1024

// DefaultWriteTimeout bounds a single write to a TCP subscriber.
const DefaultWriteTimeout = 30 * time.Second

// Listener accepts TCP subscribers and registers them with a Hub.
// Each subscriber receives every broadcast payload unframed.
type Listener struct {
	Addr         string
	MaxConns     int
	WriteTimeout time.Duration

	hub *Hub
	ln  net.Listener
	g   errgroup.Group
}

// NewListener creates a Listener that registers subscribers with hub.
func NewListener(hub *Hub, addr string) *Listener {
	return &Listener{
		Addr:         addr,
		MaxConns:     DefaultMaxConns,
		WriteTimeout: DefaultWriteTimeout,
		hub:          hub,
	}
}

// Open binds the listening socket and starts the accept loop.
func (l *Listener) Open() error {
	ln, err := net.Listen("tcp", l.Addr)
	if err != nil {
		return err
	}
	// Closing the limit listener also releases an Accept waiting for a slot.
	if l.MaxConns > 0 {
		ln = netutil.LimitListener(ln, l.MaxConns)
	}
	l.ln = ln
	l.g.Go(func() error { return l.serve(ln) })
	return nil
}

// ListenAddr returns the bound address. Only valid after Open.
func (l *Listener) ListenAddr() net.Addr {
	return l.ln.Addr()
}

// Close closes the listening socket and waits for the accept loop to exit.
// Subscribers already registered stay with the Hub.
func (l *Listener) Close() error {
	if l.ln == nil {
		return nil
	}
	if err := l.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return l.g.Wait()
}

func (l *Listener) serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if errors.Is(err, net.ErrClosed) {
			return nil
		} else if err != nil {
			return err
		}
		l.hub.Add(&connSubscriber{conn: conn, timeout: l.WriteTimeout})
	}
}

var _ httpmon.Subscriber = (*connSubscriber)(nil)

// connSubscriber writes payloads to a TCP connection.
type connSubscriber struct {
	conn    net.Conn
	timeout time.Duration
}

func (s *connSubscriber) Send(payload []byte) error {
	if s.timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			return err
		}
	}
	_, err := s.conn.Write(payload)
	return err
}

func (s *connSubscriber) Close() error {
	return s.conn.Close()
}
