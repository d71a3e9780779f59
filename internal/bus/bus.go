// Package bus provides the typed, synchronous publish/subscribe channel
// at the center of the Sparsh microkernel. Each Bus instance is fully
// isolated: two instances never cross-deliver, so two supervisors in the
// same process cannot observe each other's events.
package bus

// Handler receives the payload published on a channel. Handlers run
// synchronously on the publisher's goroutine; a handler that publishes
// another event runs depth-first. The bus never recovers a handler panic.
type Handler func(payload any)

// UnsubscribeFunc removes the subscription that produced it. It is
// idempotent: calling it twice, or after the channel is gone, is a no-op.
type UnsubscribeFunc func()

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous fan-out event channel. The zero value is not
// usable; construct with New. Bus is not safe for concurrent use: all
// publish and subscribe traffic happens on the supervisor's tick domain.
type Bus struct {
	nextID   uint64
	channels map[string][]subscription
}

// New creates an empty, isolated Bus.
func New() *Bus {
	return &Bus{
		channels: make(map[string][]subscription),
	}
}

// Subscribe registers handler on the named channel and returns the
// function that removes it. Handlers fire in subscription order.
func (b *Bus) Subscribe(channel string, handler Handler) UnsubscribeFunc {
	b.nextID++
	id := b.nextID
	b.channels[channel] = append(b.channels[channel], subscription{id: id, handler: handler})

	return func() {
		subs := b.channels[channel]
		for i, s := range subs {
			if s.id == id {
				b.channels[channel] = append(subs[:i], subs[i+1:]...)
				if len(b.channels[channel]) == 0 {
					delete(b.channels, channel)
				}
				return
			}
		}
		// Already removed, or the channel no longer exists. Benign.
	}
}

// Publish delivers payload to every handler subscribed to channel, in
// subscription order, and reports whether at least one handler ran.
// There is no queue and no reentrancy guard; a throwing (panicking)
// handler propagates to the caller.
func (b *Bus) Publish(channel string, payload any) bool {
	subs := b.channels[channel]
	if len(subs) == 0 {
		return false
	}

	// Snapshot so handlers that subscribe or unsubscribe mid-delivery
	// do not perturb this fan-out.
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)

	for _, s := range snapshot {
		s.handler(payload)
	}
	return true
}

// SubscriberCount returns the number of live subscriptions on channel.
func (b *Bus) SubscriberCount(channel string) int {
	return len(b.channels[channel])
}
