package bus

import "errors"

// Bus errors.
var (
	// ErrStopped is returned when publishing or subscribing on a stopped bus.
	ErrStopped = errors.New("bus is stopped")

	// ErrNilHandler is returned when subscribing with a nil handler.
	ErrNilHandler = errors.New("handler is nil")

	// ErrUnknownTopic is returned when publishing or subscribing on a topic
	// other than the defined channels.
	ErrUnknownTopic = errors.New("unknown topic")
)
