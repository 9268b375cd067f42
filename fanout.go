package httpmon

// Subscriber is a live consumer of fetched content, such as a connected
// TCP or WebSocket client.
type Subscriber interface {
	// Send delivers one payload. An error means the subscriber is gone.
	Send(payload []byte) error
	Close() error
}

// Fanout delivers fetched content to every live consumer.
type Fanout interface {
	// Broadcast sends payload to all subscribers and the UDP target and
	// returns how many subscribers received it. Dead subscribers are
	// dropped silently.
	Broadcast(payload []byte) int

	// Close stops accepting subscribers and disconnects existing ones.
	// It does not return until every listener has exited.
	Close() error
}

// FanoutFactory opens the fan-out endpoints described by settings.
type FanoutFactory func(s Settings) (Fanout, error)
