// Package events carries board updates between the components that change
// the board and the ones that display it.
package events

import (
	"sync"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
)

// Type names an event
type Type string

const (
	// BoardSynced is published by a client after a pull replaced its
	// local document
	BoardSynced Type = "board.synced"
	// BoardUpdated is published by the server after the singleton row was
	// written
	BoardUpdated Type = "board.updated"
)

// Event is a board change. Document is set for client side events, Row for
// server side ones.
type Event struct {
	Type     Type                  `json:"type"`
	Row      *models.CurrentBoard  `json:"row,omitempty"`
	Document *models.BoardDocument `json:"document,omitempty"`
	Origin   string                `json:"origin,omitempty"`
}

// Publisher is anything that accepts events
type Publisher interface {
	Publish(e Event)
}

// Bus is a synchronous in-process fan-out. Handlers run on the publishing
// goroutine, outside the bus lock, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[int]func(Event)
	order    []int
	next     int
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it. The
// returned function is safe to call more than once.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers e to every current subscriber
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Len returns the number of subscribers
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}
