// Package dispatch fans decoded gateway events out to the cache and to
// registered subscribers, preserving arrival order.
package dispatch

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dgnsrekt/revoltkit/wire"
)

// Applier consumes an event before any subscriber sees it. The cache
// updater satisfies this.
type Applier interface {
	Apply(ev wire.Event)
}

// HandlerFunc receives every event after cache application.
type HandlerFunc func(ev wire.Event)

type subscriber struct {
	id int
	fn HandlerFunc
}

// Dispatcher delivers events in strict arrival order: first to the
// applier, then to each subscriber in registration order. A subscriber
// that panics is isolated; it never interrupts delivery to the rest or
// stalls the stream.
type Dispatcher struct {
	applier Applier
	logger  *zap.Logger

	mu     sync.RWMutex
	nextID int
	subs   []subscriber
	closed bool
}

// New creates a dispatcher feeding applier.
func New(applier Applier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{applier: applier, logger: logger}
}

// Subscribe registers a handler and returns its id for Unsubscribe.
func (d *Dispatcher) Subscribe(fn HandlerFunc) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.subs = append(d.subs, subscriber{id: d.nextID, fn: fn})
	return d.nextID
}

// Unsubscribe removes a handler. A dispatch already in flight may
// still deliver one final event to it.
func (d *Dispatcher) Unsubscribe(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.subs {
		if s.id == id {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// SubscribeChan registers a buffered channel subscriber. A slow
// consumer never blocks dispatch: when the buffer is full the event is
// dropped and logged. The returned cancel func unsubscribes and closes
// the channel.
func (d *Dispatcher) SubscribeChan(buffer int) (<-chan wire.Event, func()) {
	ch := make(chan wire.Event, buffer)

	// Guards the channel against a send racing cancel's close.
	var mu sync.Mutex
	cancelled := false

	id := d.Subscribe(func(ev wire.Event) {
		mu.Lock()
		defer mu.Unlock()
		if cancelled {
			return
		}
		select {
		case ch <- ev:
		default:
			d.logger.Warn("subscriber channel full, dropping event",
				zap.String("event", ev.EventType()),
			)
		}
	})
	cancel := func() {
		d.Unsubscribe(id)
		mu.Lock()
		if !cancelled {
			cancelled = true
			close(ch)
		}
		mu.Unlock()
	}
	return ch, cancel
}

// Dispatch applies one event to the cache and forwards it to every
// subscriber. No events are delivered after Close. The subscriber set
// is snapshotted before delivery, so a handler may subscribe or
// unsubscribe without deadlocking; changes take effect from the next
// event.
func (d *Dispatcher) Dispatch(ev wire.Event) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return
	}

	d.applier.Apply(ev)
	subs := make([]subscriber, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	for _, s := range subs {
		d.deliver(s, ev)
	}
}

func (d *Dispatcher) deliver(s subscriber, ev wire.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("subscriber panicked",
				zap.Int("subscriber", s.id),
				zap.String("event", ev.EventType()),
				zap.Any("panic", r),
			)
		}
	}()
	s.fn(ev)
}

// Close stops delivery. In-flight dispatches complete first.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}
