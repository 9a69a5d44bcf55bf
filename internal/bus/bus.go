package bus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultQueueSize is the per-subscription queue capacity.
const DefaultQueueSize = 256

// Bus is the tool activation broadcast channel.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	order  []string
	logger *zap.Logger

	queueSize int
	stopped   atomic.Bool

	// Stats
	published atomic.Uint64
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for delivery diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithQueueSize sets the per-subscription queue capacity.
func WithQueueSize(size int) Option {
	return func(b *Bus) {
		if size > 0 {
			b.queueSize = size
		}
	}
}

// New creates a bus ready for publishing and subscribing.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs:      make(map[string]*Subscription),
		logger:    zap.NewNop(),
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler on a channel. The handler runs on the
// subscription's own goroutine; cancel via the returned subscription.
func (b *Bus) Subscribe(topic string, handler Handler) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if topic != TopicToolActivate && topic != TopicToolResult {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}

	sub := &Subscription{
		id:    uuid.NewString(),
		topic: topic,
		queue: make(chan Message, b.queueSize),
		done:  make(chan struct{}),
	}

	// Stop flips the flag before draining under this lock, so a
	// subscription that gets in here is always part of the drain set.
	b.mu.Lock()
	if b.stopped.Load() {
		b.mu.Unlock()
		return nil, ErrStopped
	}
	b.subs[sub.id] = sub
	b.order = append(b.order, sub.id)
	b.mu.Unlock()

	go sub.run(handler, b.onHandlerPanic)
	return sub, nil
}

// SubscribeActivation registers a typed listener on the tool-activate channel.
func (b *Bus) SubscribeActivation(fn func(Activation)) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(TopicToolActivate, func(msg Message) {
		if a, ok := msg.ActivationPayload(); ok {
			fn(a)
		}
	})
}

// SubscribeResult registers a typed listener on the tool-result channel.
func (b *Bus) SubscribeResult(fn func(Result)) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(TopicToolResult, func(msg Message) {
		if r, ok := msg.ResultPayload(); ok {
			fn(r)
		}
	})
}

// Unsubscribe cancels a subscription and removes it from the bus.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.Cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.subs[sub.id]; !exists {
		return
	}
	delete(b.subs, sub.id)
	for i, id := range b.order {
		if id == sub.id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// PublishActivation broadcasts a tool activation. The call never blocks on
// subscribers.
func (b *Bus) PublishActivation(a Activation) error {
	return b.publish(TopicToolActivate, a)
}

// PublishResult broadcasts a tool result.
func (b *Bus) PublishResult(r Result) error {
	return b.publish(TopicToolResult, r)
}

func (b *Bus) publish(topic string, payload any) error {
	if b.stopped.Load() {
		return ErrStopped
	}

	msg := Message{
		ID:      uuid.NewString(),
		Topic:   topic,
		Time:    time.Now(),
		Payload: payload,
	}
	b.published.Add(1)

	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.order))
	for _, id := range b.order {
		sub := b.subs[id]
		if sub.topic == topic && sub.Active() {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		if !sub.offer(msg) && sub.Active() {
			b.logger.Warn("bus message dropped",
				zap.String("topic", topic),
				zap.String("subscription", sub.id))
		}
	}
	return nil
}

// Stop cancels every subscription and waits for in-flight deliveries to
// finish, or until the context is cancelled. The bus rejects further
// publishes and subscribes.
func (b *Bus) Stop(ctx context.Context) error {
	if b.stopped.Swap(true) {
		return nil
	}

	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = make(map[string]*Subscription)
	b.order = nil
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for _, sub := range subs {
			sub.Cancel()
			<-sub.done
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubscriberCount returns the number of registered subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Published returns the total number of messages published.
func (b *Bus) Published() uint64 {
	return b.published.Load()
}

func (b *Bus) onHandlerPanic(sub *Subscription, msg Message, recovered any) {
	b.logger.Error("bus handler panic",
		zap.String("topic", msg.Topic),
		zap.String("subscription", sub.id),
		zap.Any("panic", recovered))
}
