package bus

import (
	"sync"
	"sync/atomic"
)

// Handler processes a delivered message.
type Handler func(msg Message)

// Subscription is one listener's registration on a bus channel. Each
// subscription has its own bounded queue and delivery goroutine, isolating
// it from every other subscriber.
type Subscription struct {
	id    string
	topic string

	queue chan Message
	done  chan struct{}

	cancelled atomic.Bool
	closeOnce sync.Once

	// Stats
	delivered atomic.Uint64
	dropped   atomic.Uint64
	panics    atomic.Uint64
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Topic returns the channel the subscription listens on.
func (s *Subscription) Topic() string {
	return s.topic
}

// Active reports whether the subscription can still receive messages.
func (s *Subscription) Active() bool {
	return !s.cancelled.Load()
}

// Cancel permanently stops delivery to this subscription. It is safe to
// call more than once and from any goroutine.
func (s *Subscription) Cancel() {
	s.cancelled.Store(true)
	s.closeOnce.Do(func() {
		close(s.queue)
	})
}

// Delivered returns the number of messages handed to the handler.
func (s *Subscription) Delivered() uint64 {
	return s.delivered.Load()
}

// Dropped returns the number of messages dropped because the queue was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// offer enqueues a message without blocking. A full queue drops the message.
func (s *Subscription) offer(msg Message) bool {
	if s.cancelled.Load() {
		return false
	}

	// The queue may be closed by Cancel between the check above and the
	// send; recover keeps publishers safe from that race.
	ok := false
	func() {
		defer func() {
			if recover() != nil {
				ok = false
			}
		}()
		select {
		case s.queue <- msg:
			ok = true
		default:
			s.dropped.Add(1)
		}
	}()
	return ok
}

// run delivers queued messages until the subscription is cancelled.
// Handler panics are recovered and counted; delivery continues.
func (s *Subscription) run(handler Handler, onPanic func(sub *Subscription, msg Message, recovered any)) {
	defer close(s.done)

	for msg := range s.queue {
		if s.cancelled.Load() {
			continue // Drain without delivering
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.panics.Add(1)
					if onPanic != nil {
						onPanic(s, msg, r)
					}
				}
			}()
			handler(msg)
			s.delivered.Add(1)
		}()
	}
}
