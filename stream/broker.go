// Package stream pushes activity snapshots to connected clients over
// server-sent events.
package stream

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"study-planner/domain"
)

// Broker fans store change notifications out to SSE subscribers. Signals are
// coalesced: a subscriber that has not yet consumed a pending signal does not
// get a second one, and Publish never blocks.
type Broker struct {
	mu     sync.Mutex
	subs   map[chan struct{}]struct{}
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan struct{}]struct{})}
}

// subscribe returns a signal channel. After Close it returns a closed channel.
func (b *Broker) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs[ch] = struct{}{}
	}
	b.mu.Unlock()
	return ch
}

func (b *Broker) unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Close ends every open stream. It is called before the HTTP server shuts
// down, since in-flight request contexts are not cancelled by Shutdown.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}

// Subscribers reports the number of connected streams.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish implements storage.Publisher.
func (b *Broker) Publish(ev domain.Event) {
	log.WithFields(log.Fields{"event": ev.Type, "activity": ev.EntityID}).Debug("notify stream subscribers")
	b.notify()
}

func (b *Broker) notify() {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()
}
