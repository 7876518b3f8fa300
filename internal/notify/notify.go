// Package notify fans study events out to any number of live subscribers.
package notify

import (
	"sync"
	"time"
)

// Topic names the kind of change an Event announces.
type Topic string

const (
	TopicStats     Topic = "stats"
	TopicCards     Topic = "cards"
	TopicTimer     Topic = "timer"
	TopicQuiz      Topic = "quiz"
	TopicFavorites Topic = "favorites"
	TopicPlans     Topic = "plans"
)

type Event struct {
	Topic Topic     `json:"topic"`
	At    time.Time `json:"at"`
}

// Publisher is implemented by anything that can announce an Event.
type Publisher interface {
	Publish(Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(Event) {}

const subscriberBuffer = 16

// Broadcaster delivers each published event to every current subscriber.
// A subscriber whose buffer is full misses the event rather than blocking the publisher.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber. The returned cancel func closes the
// channel and is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
