package socket

import (
	"errors"
	"log/slog"

	"github.com/fwojciec/httpmon"
)

// Endpoint accepts subscribers for a Hub.
type Endpoint interface {
	Open() error
	Close() error
}

var _ httpmon.Fanout = (*Fanout)(nil)

// Fanout broadcasts payloads to a Hub of subscribers and an optional UDP
// target. Endpoints feed subscribers into the Hub.
type Fanout struct {
	Hub       *Hub
	Endpoints []Endpoint
	UDP       *UDPSender
	Logger    *slog.Logger
}

// NewFanout creates a Fanout around an empty Hub.
func NewFanout(logger *slog.Logger) *Fanout {
	return &Fanout{Hub: NewHub(), Logger: logger}
}

// Open opens every endpoint. On failure, endpoints already opened are
// closed again.
func (f *Fanout) Open() error {
	for i, e := range f.Endpoints {
		if err := e.Open(); err != nil {
			for _, opened := range f.Endpoints[:i] {
				_ = opened.Close()
			}
			return err
		}
	}
	return nil
}

// Broadcast delivers payload to every subscriber, then to the UDP target.
// A UDP failure is logged and otherwise ignored.
func (f *Fanout) Broadcast(payload []byte) int {
	n := f.Hub.Broadcast(payload)
	if f.UDP != nil {
		if err := f.UDP.Send(payload); err != nil && f.Logger != nil {
			f.Logger.Warn("udp send failed",
				"target", f.UDP.Target,
				"bytes", len(payload),
				"err", err,
			)
		}
	}
	return n
}

// Close closes every endpoint, waiting for their accept loops, then
// disconnects all subscribers.
func (f *Fanout) Close() error {
	var errs []error
	for _, e := range f.Endpoints {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := f.Hub.Close(); err != nil {
		errs = append(errs, err)
	}
	if f.UDP != nil {
		if err := f.UDP.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
