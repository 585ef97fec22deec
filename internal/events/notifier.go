// Package events carries the in-process "cart changed" broadcast that lets
// independent consumers (metrics, dashboards) react to cart mutations
// without being wired to the cart store directly.
package events

import "sync"

// CartChanged announces that the cart for a device was mutated.
type CartChanged struct {
	DeviceID string
}

// Notifier fans a CartChanged event out to currently registered
// subscribers. Delivery is at-least-once for registered subscribers and
// never blocks the publisher; subscribers registered after an event do not
// see it replayed.
type Notifier struct {
	mu   sync.Mutex
	subs map[int]chan CartChanged
	next int
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan CartChanged)}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the listener goes away; the channel is closed by cancel.
func (n *Notifier) Subscribe() (<-chan CartChanged, func()) {

	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++

	// Buffer of 1 so a slow listener coalesces bursts instead of blocking
	// the publisher.
	ch := make(chan CartChanged, 1)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers the event to every registered subscriber without
// blocking. A subscriber whose buffer is full already has a wake-up
// pending, so the drop loses no information.
func (n *Notifier) Publish(ev CartChanged) {

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Len reports the number of registered subscribers.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.subs)
}
