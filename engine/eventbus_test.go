package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"scorekeeper/core"
)

func TestEventBusSync(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	bus.Subscribe(core.EventScoreSubmitted, func(ctx context.Context, e core.Event) { count++ })
	bus.Publish(context.Background(), core.NewScoreSubmitted(core.ScoreRecord{ID: 1, Score: 10}, 1))
	if count != 1 {
		t.Fatalf("want 1 got %d", count)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	unsubscribe := bus.Subscribe(core.EventScoreEvicted, func(ctx context.Context, e core.Event) { count++ })
	unsubscribe()
	bus.Publish(context.Background(), core.NewScoreEvicted(core.ScoreRecord{ID: 1}, 0))
	if count != 0 {
		t.Fatalf("handler ran after unsubscribe: %d", count)
	}
}

func TestEventBusAsync(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()
	ch := make(chan struct{})
	bus.Subscribe(core.EventScoreSubmitted, func(ctx context.Context, e core.Event) { close(ch) })
	bus.Publish(context.Background(), core.NewScoreSubmitted(core.ScoreRecord{ID: 1, Score: 10}, 1))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestEventBusCloseDrainsQueue(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	var delivered atomic.Int64
	bus.Subscribe(core.EventScoreEvicted, func(ctx context.Context, e core.Event) { delivered.Add(1) })
	for i := 0; i < 50; i++ {
		bus.Publish(context.Background(), core.NewScoreEvicted(core.ScoreRecord{ID: int64(i)}, 0))
	}
	bus.Close()
	if delivered.Load() != 50 {
		t.Fatalf("expected all 50 queued events delivered, got %d", delivered.Load())
	}
}
