// Package realtime fans room changes out to subscribers. Every event carries
// the whole room, so consumers replace their copy instead of patching it.
package realtime

import (
	"sync"

	"github.com/playperu/imposter/internal/imposter"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is a room change. Room is nil for deletes.
type Event struct {
	Type    EventType      `json:"type"`
	Code    string         `json:"code"`
	Version int64          `json:"version"`
	Room    *imposter.Room `json:"room,omitempty"`
}

// DefaultBuffer is the per-subscription queue length.
const DefaultBuffer = 16

// Broker is an in-process pub/sub for room events, keyed by room code.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	closed bool
}

func NewBroker() *Broker {
	return &Broker{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: DefaultBuffer,
	}
}

// Subscription receives the events of one room on C until Close is called
// or the broker shuts down, after which C is closed.
type Subscription struct {
	C <-chan Event

	ch     chan Event
	code   string
	broker *Broker

	mu     sync.Mutex
	closed bool
	once   sync.Once
}

// Subscribe registers interest in code. Events published before the call are
// not replayed; callers resync from the store after subscribing.
func (b *Broker) Subscribe(code string) *Subscription {
	ch := make(chan Event, b.buffer)
	sub := &Subscription{C: ch, ch: ch, code: code, broker: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.shut()
		return sub
	}
	if b.subs[code] == nil {
		b.subs[code] = make(map[*Subscription]struct{})
	}
	b.subs[code][sub] = struct{}{}
	return sub
}

// Close detaches the subscription. Safe to call more than once and after
// the broker itself was closed.
func (s *Subscription) Close() {
	s.once.Do(func() {
		b := s.broker
		b.mu.Lock()
		if set := b.subs[s.code]; set != nil {
			delete(set, s)
			if len(set) == 0 {
				delete(b.subs, s.code)
			}
		}
		b.mu.Unlock()
		s.shut()
	})
}

func (s *Subscription) shut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// deliver never blocks. When the queue is full the oldest pending event is
// dropped so the newest snapshot always gets through.
func (s *Subscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Publish sends ev to every subscriber of code. Calls are serialized, so
// subscribers observe events in publish order.
func (b *Broker) Publish(code string, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[code] {
		sub.deliver(ev)
	}
}

// Subscribers reports how many subscriptions code currently has.
func (b *Broker) Subscribers(code string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[code])
}

// Close ends every subscription. Later subscriptions are born closed.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for code, set := range b.subs {
		for sub := range set {
			sub.shut()
		}
		delete(b.subs, code)
	}
}
