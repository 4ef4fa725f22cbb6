package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBus_EmitReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	got := make(chan string, 2)

	bus.Subscribe(EventTypeWinClaimed, func(ctx context.Context, event Event) {
		got <- "first"
	})
	bus.Subscribe(EventTypeWinClaimed, func(ctx context.Context, event Event) {
		got <- "second"
	})

	bus.Emit(context.Background(), WinClaimedEvent{GuildID: "g1", WinnerID: "user1"})

	received := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case name := <-got:
			received[name] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for handlers")
		}
	}
	assert.True(t, received["first"])
	assert.True(t, received["second"])
}

func TestBus_EmitOnlyMatchingType(t *testing.T) {
	bus := NewBus()
	got := make(chan Event, 1)

	bus.Subscribe(EventTypeWinMissed, func(ctx context.Context, event Event) {
		got <- event
	})

	bus.Emit(context.Background(), WinClaimedEvent{GuildID: "g1", WinnerID: "user1"})

	select {
	case <-got:
		t.Fatal("handler received an event of another type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus()
	got := make(chan struct{}, 1)

	bus.Subscribe(EventTypeDisputeResolved, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeDisputeResolved, func(ctx context.Context, event Event) {
		got <- struct{}{}
	})

	bus.Emit(context.Background(), DisputeResolvedEvent{GuildID: "g1"})

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("surviving handler never ran")
	}
}
