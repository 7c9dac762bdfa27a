// Package pubsub provides a minimal generic broadcast broker.
package pubsub

import (
	"context"
	"sync"
)

// Event wraps a published payload.
type Event[T any] struct {
	Payload T
}

// subscriberBuffer is the per-subscriber channel depth. Slow subscribers
// drop the oldest pending event rather than blocking publishers.
const subscriberBuffer = 8

// Broker fans published events out to all active subscribers.
type Broker[T any] struct {
	mu       sync.Mutex
	subs     map[chan Event[T]]struct{}
	shutdown bool
}

// NewBroker creates an empty broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[chan Event[T]]struct{})}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// ctx is cancelled or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	ch := make(chan Event[T], subscriberBuffer)

	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}()

	return ch
}

// Publish delivers payload to every subscriber. When a subscriber's buffer
// is full its oldest pending event is evicted so the newest state wins.
func (b *Broker[T]) Publish(payload T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		ev := Event[T]{Payload: payload}
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Shutdown closes all subscriber channels and rejects future subscriptions.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shutdown {
		return
	}
	b.shutdown = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = map[chan Event[T]]struct{}{}
}
