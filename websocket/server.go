// Package websocket accepts WebSocket subscribers for a socket.Hub. Each
// subscriber receives every broadcast payload as one binary message.
package websocket

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fwojciec/httpmon"
	"github.com/fwojciec/httpmon/socket"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// DefaultWriteTimeout bounds a single message write.
const DefaultWriteTimeout = 30 * time.Second

// Server upgrades HTTP connections to WebSocket subscribers.
type Server struct {
	Addr         string
	WriteTimeout time.Duration

	hub      *socket.Hub
	upgrader websocket.Upgrader
	ln       net.Listener
	srv      *http.Server
	g        errgroup.Group
}

// NewServer creates a Server that registers subscribers with hub.
func NewServer(hub *socket.Hub, addr string) *Server {
	return &Server{
		Addr:         addr,
		WriteTimeout: DefaultWriteTimeout,
		hub:          hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Open binds the listening socket and starts serving.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.g.Go(func() error {
		if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return nil
}

// ListenAddr returns the bound address. Only valid after Open.
func (s *Server) ListenAddr() net.Addr {
	return s.ln.Addr()
}

// Close stops the server and waits for it to exit. Upgraded connections
// belong to the Hub and are not closed here.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Close(); err != nil {
		return err
	}
	return s.g.Wait()
}

// ServeHTTP upgrades the request and keeps the subscriber registered until
// the peer goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		return
	}
	id := s.hub.Add(&subscriber{conn: conn, timeout: s.WriteTimeout})

	// Reads are only needed to process control frames and notice closes.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			s.hub.Remove(id)
			return
		}
	}
}

var _ httpmon.Subscriber = (*subscriber)(nil)

type subscriber struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

func (s *subscriber) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			return err
		}
	}
	return s.conn.WriteMessage(websocket.BinaryMessage, payload)
}

func (s *subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}
