package mock

import (
	"github.com/fwojciec/httpmon"
)

// Compile-time interface verification.
var (
	_ httpmon.Fanout     = (*Fanout)(nil)
	_ httpmon.Subscriber = (*Subscriber)(nil)
)

// Fanout is a mock implementation of httpmon.Fanout.
type Fanout struct {
	BroadcastFn func(payload []byte) int
	CloseFn     func() error
}

func (f *Fanout) Broadcast(payload []byte) int {
	return f.BroadcastFn(payload)
}

func (f *Fanout) Close() error {
	return f.CloseFn()
}

// Subscriber is a mock implementation of httpmon.Subscriber.
type Subscriber struct {
	SendFn  func(payload []byte) error
	CloseFn func() error
}

func (s *Subscriber) Send(payload []byte) error {
	return s.SendFn(payload)
}

func (s *Subscriber) Close() error {
	return s.CloseFn()
}
