package events

import (
	"fmt"
	"sync"
	"time"
)

// Bus distributes events to subscribers. Publishing never blocks: a
// subscriber whose channel is full misses the event rather than stalling
// the generation loop.
type Bus struct {
	subscribers map[string]chan Event
	mutex       sync.RWMutex
	nextID      int64
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]chan Event),
	}
}

// Subscribe registers a named subscriber and returns its channel.
func (b *Bus) Subscribe(name string) <-chan Event {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ch := make(chan Event, 100)
	b.subscribers[name] = ch
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(name string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if ch, exists := b.subscribers[name]; exists {
		delete(b.subscribers, name)
		close(ch)
	}
}

// Publish broadcasts a payload, stamping it with an ID and timestamp.
func (b *Bus) Publish(payload Payload) {
	b.mutex.Lock()
	b.nextID++
	event := Event{
		ID:        fmt.Sprintf("%s-%d", time.Now().Format("20060102-150405"), b.nextID),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Payload:   payload,
	}
	subscribers := make([]chan Event, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		subscribers = append(subscribers, ch)
	}
	b.mutex.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- event:
		default:
			// Channel is full, skip this subscriber so a slow
			// consumer cannot stall generation.
		}
	}
}
