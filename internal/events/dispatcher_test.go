package events

import (
	"testing"
	"time"
)

func TestSubscribePublish(t *testing.T) {
	d := NewDispatcher()

	sub := d.Subscribe("acc-1")
	defer sub.Close()
	other := d.Subscribe("acc-2")
	defer other.Close()

	d.Publish(Event{Kind: KindBalanceUpdated, AccountID: "acc-1", Amount: 500})

	select {
	case ev := <-sub.C:
		if ev.Kind != KindBalanceUpdated || ev.Amount != 500 {
			t.Errorf("wrong event: %+v", ev)
		}
		if ev.OccurredAt.IsZero() {
			t.Error("OccurredAt not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	select {
	case ev := <-other.C:
		t.Fatalf("event leaked to other account: %+v", ev)
	default:
	}
}

func TestCloseReleasesSubscription(t *testing.T) {
	d := NewDispatcher()

	sub := d.Subscribe("acc-1")
	if d.SubscriberCount("acc-1") != 1 {
		t.Fatalf("expected 1 subscriber, got %d", d.SubscriberCount("acc-1"))
	}

	sub.Close()
	if d.SubscriberCount("acc-1") != 0 {
		t.Fatalf("expected 0 subscribers after close, got %d", d.SubscriberCount("acc-1"))
	}

	// Close is idempotent and the channel is closed.
	sub.Close()
	if _, ok := <-sub.C; ok {
		t.Error("channel should be closed")
	}

	// Publishing after close must not panic.
	d.Publish(Event{Kind: KindBalanceUpdated, AccountID: "acc-1"})
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	d := NewDispatcher()

	sub := d.Subscribe("acc-1")
	defer sub.Close()

	// Overfill the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			d.Publish(Event{Kind: KindNotificationCreated, AccountID: "acc-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}

	if got := len(sub.C); got > subscriberBuffer {
		t.Errorf("buffered more than the limit: %d", got)
	}
}
