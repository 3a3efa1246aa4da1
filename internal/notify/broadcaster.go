// Package notify fans controller snapshots out to observers.
package notify

import "sync"

// Broadcaster delivers every published value to every subscriber, in
// publish order. Subscribers run synchronously on the publishing
// goroutine, so they must not call back into the publisher.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(T)
}

// Subscribe registers fn and returns a function that removes it.
func (b *Broadcaster[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]func(T))
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish calls each subscriber with v in subscription order. The lock
// is held for the whole fan-out so two publishes never interleave.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id := 0; id < b.nextID; id++ {
		if fn, ok := b.subs[id]; ok {
			fn(v)
		}
	}
}
