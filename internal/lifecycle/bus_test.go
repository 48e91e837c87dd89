package lifecycle

import (
	"testing"
	"time"
)

func TestBusDelivers(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(Event{Type: EventStatusChanged, InvoiceID: "inv-1", Status: StatusPaid})
	select {
	case e := <-ch:
		if e.InvoiceID != "inv-1" || e.Status != StatusPaid {
			t.Fatalf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe()
	cancel()
	if _, open := <-ch; open {
		t.Fatal("channel should be closed after unsubscribe")
	}
	// publishing after unsubscribe must not panic
	b.Publish(Event{Type: EventDeleted, InvoiceID: "inv-2"})
}

func TestBusSlowSubscriberDropsOldest(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe()
	defer cancel()

	// overflow the buffer without draining
	for i := 0; i < subBuffer+5; i++ {
		b.Publish(Event{Type: EventStatusChanged, InvoiceID: "inv"})
	}
	// the latest event must still be deliverable
	b.Publish(Event{Type: EventDeleted, InvoiceID: "last"})

	var last Event
	for {
		select {
		case e := <-ch:
			last = e
			continue
		default:
		}
		break
	}
	if last.InvoiceID != "last" || last.Type != EventDeleted {
		t.Fatalf("latest event lost, got %+v", last)
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	b := NewBus()
	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Publish(Event{Type: EventStatusChanged, InvoiceID: "inv-3", Status: StatusCanceled})
	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.InvoiceID != "inv-3" {
				t.Fatalf("unexpected event %+v", e)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber missed event")
		}
	}
}
