package app

import (
	"sync"
)

// subscriberBuffer bounds each subscriber's pending events. A subscriber that
// falls this far behind starts losing events rather than blocking producers.
const subscriberBuffer = 100

// UserChannel is the single fan-out channel of one user. Every subscriber
// (one per physical connection) receives every published payload. Publishing
// never blocks: a full subscriber simply misses that payload.
type UserChannel struct {
	mu   sync.Mutex
	subs map[int]chan []byte
	next int
}

func newUserChannel() *UserChannel {
	return &UserChannel{subs: make(map[int]chan []byte)}
}

// subscribe adds a subscriber and returns its receive channel plus a removal
// func. Removal closes the channel and is safe to call once. Unexported: all
// subscriptions go through the registry so they stay atomic with the routing
// table.
func (c *UserChannel) subscribe() (<-chan []byte, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.next
	c.next++
	ch := make(chan []byte, subscriberBuffer)
	c.subs[id] = ch

	remove := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, remove
}

// Publish hands the payload to every current subscriber, dropping the copy
// for any subscriber whose buffer is full.
func (c *UserChannel) Publish(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subs {
		select {
		case sub <- payload:
		default:
		}
	}
}

func (c *UserChannel) subscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// ConnectionRegistry maps a user id to its fan-out channel. At most one
// channel exists per user, and a channel's get-or-create happens in the same
// critical section as the subscription itself, so a teardown racing a
// reconnect can never remove a channel that was just handed to a new
// subscriber.
type ConnectionRegistry struct {
	mu       sync.Mutex
	channels map[string]*UserChannel
}

// NewConnectionRegistry create an empty registry
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{channels: make(map[string]*UserChannel)}
}

// Subscribe attaches a new subscriber to the user's channel, creating the
// channel if absent, and returns the receive channel plus an unsubscribe
// func. Unsubscribe also removes the registry entry when it drops the last
// subscriber; it is idempotent.
func (r *ConnectionRegistry) Subscribe(userID string) (<-chan []byte, func()) {
	r.mu.Lock()
	ch, ok := r.channels[userID]
	if !ok {
		ch = newUserChannel()
		r.channels[userID] = ch
	}
	sub, remove := ch.subscribe()
	r.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			remove()
			// Drop the entry only while it is still this channel: a
			// reconnect may already have replaced a drained one.
			if r.channels[userID] == ch && ch.subscriberCount() == 0 {
				delete(r.channels, userID)
			}
		})
	}
	return sub, unsubscribe
}

// Route delivers the payload to the user's channel. It reports false when the
// user has no channel, so the caller can fall back to the unread counter.
// Delivery means handed to the channel, not acknowledged by any client.
func (r *ConnectionRegistry) Route(userID string, payload []byte) bool {
	r.mu.Lock()
	ch, ok := r.channels[userID]
	r.mu.Unlock()

	if !ok || ch.subscriberCount() == 0 {
		return false
	}
	ch.Publish(payload)
	return true
}

// Connected reports whether the user currently has a routable channel.
func (r *ConnectionRegistry) Connected(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[userID]
	return ok && ch.subscriberCount() > 0
}
