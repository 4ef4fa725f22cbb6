package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querty/events"
	"querty/models"
)

func TestCooldownScheduler_DecaysToZero(t *testing.T) {
	ledger := newTestLedger(t)
	require.NoError(t, ledger.ApplyDelta("g1", "user1", models.Delta{CooldownNights: 3}))

	scheduler := NewCooldownScheduler(ledger, events.NewBus(), 10*time.Millisecond)
	scheduler.ScheduleDecay(context.Background(), "g1", "user1", 3)

	assert.Eventually(t, func() bool {
		entry, _, err := ledger.Entry("g1", "user1")
		return err == nil && entry.CooldownNights == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCooldownScheduler_EmitsRemaining(t *testing.T) {
	ledger := newTestLedger(t)
	require.NoError(t, ledger.ApplyDelta("g1", "user1", models.Delta{CooldownNights: 2}))

	bus := events.NewBus()
	done := make(chan int, 2)
	bus.Subscribe(events.EventTypeCooldownDecayed, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.CooldownDecayedEvent); ok {
			done <- e.Remaining
		}
	})

	scheduler := NewCooldownScheduler(ledger, bus, 10*time.Millisecond)
	scheduler.ScheduleDecay(context.Background(), "g1", "user1", 2)

	remaining := collectInts(t, done, 2)
	assert.ElementsMatch(t, []int{1, 0}, remaining)
}

func TestCooldownScheduler_CancelledContext(t *testing.T) {
	ledger := newTestLedger(t)
	require.NoError(t, ledger.ApplyDelta("g1", "user1", models.Delta{CooldownNights: 2}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scheduler := NewCooldownScheduler(ledger, events.NewBus(), 10*time.Millisecond)
	scheduler.ScheduleDecay(ctx, "g1", "user1", 2)

	time.Sleep(100 * time.Millisecond)

	entry, _, err := ledger.Entry("g1", "user1")
	require.NoError(t, err)
	assert.Equal(t, 2, entry.CooldownNights)
}

func collectInts(t *testing.T, ch <-chan int, n int) []int {
	t.Helper()
	var out []int
	for i := 0; i < n; i++ {
		select {
		case v := <-ch:
			out = append(out, v)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for value %d of %d", i+1, n)
		}
	}
	return out
}
