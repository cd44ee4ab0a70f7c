package realtime

import "testing"

func TestHub_FanOutAndCancel(t *testing.T) {
	t.Parallel()

	h := newHub()
	a, cancelA := h.subscribe()
	b, cancelB := h.subscribe()
	defer cancelB()

	h.publish(Event{Name: "toast"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Name != "toast" {
				t.Fatalf("event name = %q, want toast", ev.Name)
			}
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}

	cancelA()
	if _, open := <-a; open {
		t.Error("cancelled subscriber channel still open")
	}
	// Publishing after a cancel must not panic or block.
	h.publish(Event{Name: "printers"})
	cancelA()
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	t.Parallel()

	h := newHub()
	ch, cancel := h.subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.publish(Event{Name: "printer_status"})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received != subscriberBuffer {
		t.Errorf("received %d events, want the buffer depth %d", received, subscriberBuffer)
	}
}
