package session

import (
	"sync"

	"github.com/dmitrijs2005/gatelog/internal/client/models"
)

type EventKind string

const (
	EventLogin   EventKind = "login"
	EventLogout  EventKind = "logout"
	EventRefresh EventKind = "refresh"
)

// Origin tells whether a change was made by this process or adopted from
// another one through the shared store.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Event announces a session change. Session is nil on logout.
type Event struct {
	Kind       EventKind
	Session    *models.Session
	Generation uint64
	Origin     Origin
}

// Bus delivers session events to every subscriber, synchronously and in
// subscription order. Handlers run while the store holds its write lock:
// they must not call Store mutators or issue requests.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every subscriber with e and returns after the last one.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(e)
	}
}
