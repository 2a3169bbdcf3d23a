package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryBusDeliversInOrder(t *testing.T) {
	bus := NewMemoryBus(8)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i, id := range []string{"p1", "p2", "p3"} {
		kind := KindPost
		if i > 0 {
			kind = KindReply
		}
		if err := bus.Publish(ctx, Event{Kind: kind, PublicationID: id}); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}

	var received []string
	consumeCtx, stop := context.WithCancel(ctx)
	err := bus.Consume(consumeCtx, func(_ context.Context, event Event) error {
		received = append(received, event.PublicationID)
		if len(received) == 3 {
			stop()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("consume: %v", err)
	}

	want := []string{"p1", "p2", "p3"}
	for i, id := range want {
		if received[i] != id {
			t.Fatalf("position %d: got %s, want %s", i, received[i], id)
		}
	}
}

func TestMemoryBusDropsWhenFull(t *testing.T) {
	bus := NewMemoryBus(1)
	ctx := context.Background()

	if err := bus.Publish(ctx, Event{PublicationID: "p1"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := bus.Publish(ctx, Event{PublicationID: "p2"}); err == nil {
		t.Fatal("expected error when buffer is full")
	}
}

func TestMemoryBusHandlerErrorDoesNotStopConsumption(t *testing.T) {
	bus := NewMemoryBus(8)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_ = bus.Publish(ctx, Event{PublicationID: "bad"})
	_ = bus.Publish(ctx, Event{PublicationID: "good"})

	var handled []string
	consumeCtx, stop := context.WithCancel(ctx)
	err := bus.Consume(consumeCtx, func(_ context.Context, event Event) error {
		handled = append(handled, event.PublicationID)
		if event.PublicationID == "bad" {
			return errors.New("handler failure")
		}
		stop()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("consume: %v", err)
	}
	if len(handled) != 2 || handled[1] != "good" {
		t.Fatalf("unexpected handled events: %v", handled)
	}
}
