package main

import (
	"log/slog"
	"net"
	"strconv"

	"github.com/fwojciec/httpmon"
	"github.com/fwojciec/httpmon/socket"
	"github.com/fwojciec/httpmon/websocket"
)

// NewFanoutFactory returns a factory that opens the TCP and WebSocket
// listeners and the UDP target named by the settings.
func NewFanoutFactory(logger *slog.Logger) httpmon.FanoutFactory {
	return func(s httpmon.Settings) (httpmon.Fanout, error) {
		f := socket.NewFanout(logger)
		if s.TCPPort > 0 {
			f.Endpoints = append(f.Endpoints, socket.NewListener(f.Hub, listenAddr(s.TCPPort)))
		}
		if s.WebSocketPort > 0 {
			f.Endpoints = append(f.Endpoints, websocket.NewServer(f.Hub, listenAddr(s.WebSocketPort)))
		}
		if target := s.UDPTarget(); target != "" {
			f.UDP = socket.NewUDPSender(target)
		}
		if err := f.Open(); err != nil {
			return nil, err
		}
		return f, nil
	}
}

func listenAddr(port int) string {
	return net.JoinHostPort("", strconv.Itoa(port))
}
