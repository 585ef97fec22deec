package events_test

import (
	"testing"
	"time"

	"github.com/servicehubhq/cart-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier(t *testing.T) {
	t.Run("Delivers To Registered Subscribers", func(t *testing.T) {
		n := events.NewNotifier()

		ch1, cancel1 := n.Subscribe()
		defer cancel1()
		ch2, cancel2 := n.Subscribe()
		defer cancel2()

		n.Publish(events.CartChanged{DeviceID: "device-1"})

		for _, ch := range []<-chan events.CartChanged{ch1, ch2} {
			select {
			case ev := <-ch:
				assert.Equal(t, "device-1", ev.DeviceID)
			case <-time.After(time.Second):
				t.Fatal("expected cart-changed event")
			}
		}
	})

	t.Run("Publish Never Blocks On Slow Subscriber", func(t *testing.T) {
		n := events.NewNotifier()

		_, cancel := n.Subscribe()
		defer cancel()

		done := make(chan struct{})
		go func() {
			// Nobody drains the subscription; repeated publishes must
			// still return.
			for range 10 {
				n.Publish(events.CartChanged{DeviceID: "device-2"})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("publish blocked on a slow subscriber")
		}
	})

	t.Run("No Replay For Late Subscribers", func(t *testing.T) {
		n := events.NewNotifier()

		n.Publish(events.CartChanged{DeviceID: "device-3"})

		ch, cancel := n.Subscribe()
		defer cancel()

		select {
		case ev := <-ch:
			t.Fatalf("unexpected replayed event: %+v", ev)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("Cancel Closes And Unregisters", func(t *testing.T) {
		n := events.NewNotifier()

		ch, cancel := n.Subscribe()
		require.Equal(t, 1, n.Len())

		cancel()
		assert.Equal(t, 0, n.Len())

		_, open := <-ch
		assert.False(t, open)

		// Second cancel is a no-op.
		cancel()
	})
}
