// Package bus is the observable event bus between the Orchestrator and
// any number of consumers — currently just the Display, but kept
// multi-consumer (tap channels) the way the teacher's bus does, since a
// future audit-stream or remote-monitor consumer would tap the same way.
package bus

import (
	"log"
	"sync"

	"github.com/umbrasol/umbrasol/internal/types"
)

const (
	subscriberBufSize = 64
	tapBufSize        = 256
)

// Bus fans out UIEvents to subscribers of a specific kind and to every
// registered tap.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[types.UIEventKind][]chan types.UIEvent
	taps        []chan types.UIEvent
}

// New creates a new Bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[types.UIEventKind][]chan types.UIEvent),
	}
}

// Publish fans out ev to all subscribers of ev.Kind and to every tap.
// Non-blocking: if a subscriber's channel is full, the event is dropped
// with a warning rather than stalling the Orchestrator.
func (b *Bus) Publish(ev types.UIEvent) {
	b.mu.RLock()
	subs := b.subscribers[ev.Kind]
	taps := b.taps
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			log.Printf("[bus] WARNING: subscriber channel full for kind=%s task=%s — event dropped", ev.Kind, ev.TaskID)
		}
	}
	for _, tap := range taps {
		select {
		case tap <- ev:
		default:
			log.Printf("[bus] WARNING: tap channel full — event dropped kind=%s", ev.Kind)
		}
	}
}

// Subscribe returns a receive-only channel delivering events of kind k.
func (b *Bus) Subscribe(k types.UIEventKind) <-chan types.UIEvent {
	ch := make(chan types.UIEvent, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[k] = append(b.subscribers[k], ch)
	b.mu.Unlock()
	return ch
}

// NewTap registers and returns a new read-only tap channel that receives
// every published event regardless of kind.
func (b *Bus) NewTap() <-chan types.UIEvent {
	ch := make(chan types.UIEvent, tapBufSize)
	b.mu.Lock()
	b.taps = append(b.taps, ch)
	b.mu.Unlock()
	return ch
}
