package app

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionRegistry_BroadcastToAllSubscribers(t *testing.T) {
	registry := NewConnectionRegistry()

	subA, unsubA := registry.Subscribe("user-1")
	subB, unsubB := registry.Subscribe("user-1")
	defer unsubA()
	defer unsubB()

	ok := registry.Route("user-1", []byte("hello"))

	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), <-subA)
	assert.Equal(t, []byte("hello"), <-subB)
}

func TestConnectionRegistry_ConcurrentSubscribeSharesOneChannel(t *testing.T) {
	registry := NewConnectionRegistry()

	const goroutines = 32
	subs := make([]<-chan []byte, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subs[i], _ = registry.Subscribe("user-1")
		}(i)
	}
	wg.Wait()

	// A single Route must reach every subscriber exactly once.
	assert.True(t, registry.Route("user-1", []byte("fan-out")))
	for i := 0; i < goroutines; i++ {
		assert.Equal(t, []byte("fan-out"), <-subs[i])
	}
}

func TestUserChannel_SlowSubscriberDropsNotBlocks(t *testing.T) {
	channel := newUserChannel()
	sub, remove := channel.subscribe()
	defer remove()

	// One past the buffer; the overflow payload must be dropped silently.
	for i := 0; i <= subscriberBuffer; i++ {
		channel.Publish([]byte(fmt.Sprintf("msg-%d", i)))
	}

	assert.Len(t, sub, subscriberBuffer)
	assert.Equal(t, []byte("msg-0"), <-sub)
}

func TestConnectionRegistry_RouteWithoutSubscriber(t *testing.T) {
	registry := NewConnectionRegistry()

	// Never subscribed.
	assert.False(t, registry.Route("ghost", []byte("x")))
	assert.False(t, registry.Connected("ghost"))

	// Fully unsubscribed.
	_, unsub := registry.Subscribe("user-1")
	unsub()
	assert.False(t, registry.Route("user-1", []byte("x")))
	assert.False(t, registry.Connected("user-1"))
}

func TestConnectionRegistry_UnsubscribeRefCounted(t *testing.T) {
	registry := NewConnectionRegistry()

	_, unsubA := registry.Subscribe("user-1")
	subB, unsubB := registry.Subscribe("user-1")

	// First device disconnects: the second still receives.
	unsubA()

	assert.True(t, registry.Connected("user-1"))
	assert.True(t, registry.Route("user-1", []byte("still here")))
	assert.Equal(t, []byte("still here"), <-subB)

	// Last device disconnects: entry goes away.
	unsubB()

	assert.False(t, registry.Connected("user-1"))
	assert.False(t, registry.Route("user-1", []byte("gone")))
}

func TestConnectionRegistry_UnsubscribeTwice(t *testing.T) {
	registry := NewConnectionRegistry()

	_, unsubA := registry.Subscribe("user-1")
	subB, unsubB := registry.Subscribe("user-1")
	defer unsubB()

	unsubA()
	assert.NotPanics(t, func() { unsubA() })

	// The double call must not take down the remaining subscriber.
	assert.True(t, registry.Route("user-1", []byte("alive")))
	assert.Equal(t, []byte("alive"), <-subB)
}

func TestConnectionRegistry_ReconnectDuringTeardown(t *testing.T) {
	registry := NewConnectionRegistry()

	// The old connection tears down while a replacement for the same user
	// arrives; whichever order the two run in, the replacement must stay
	// routable.
	_, unsubOld := registry.Subscribe("user-1")
	sub, unsubNew := registry.Subscribe("user-1")
	unsubOld()
	defer unsubNew()

	assert.True(t, registry.Connected("user-1"))
	assert.True(t, registry.Route("user-1", []byte("welcome back")))
	assert.Equal(t, []byte("welcome back"), <-sub)
}

func TestConnectionRegistry_ChurnNeverOrphansSubscriber(t *testing.T) {
	registry := NewConnectionRegistry()

	stable, unsubStable := registry.Subscribe("user-1")
	defer unsubStable()

	// Hammer the same user with connect/disconnect cycles while routing
	// concurrently: the stable subscriber exists throughout, so Route must
	// never report the user unreachable.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_, unsub := registry.Subscribe("user-1")
				unsub()
			}
		}()
	}

	for k := 0; k < 500; k++ {
		assert.True(t, registry.Route("user-1", []byte("ping")))
		// Drain so the stable buffer never masks a dropped delivery.
		select {
		case <-stable:
		default:
		}
	}
	wg.Wait()

	assert.True(t, registry.Route("user-1", []byte("final")))
}
