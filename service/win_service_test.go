package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querty/events"
	"querty/models"
	"querty/store"
)

// midnight is a timestamp inside the qualifying minute
var midnight = time.Date(2026, 6, 1, 0, 0, 12, 0, time.UTC)

func newTestLedger(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "zerozero.json"))
	require.NoError(t, err)
	_, err = s.RegisterGuild("g1", "Guild One")
	require.NoError(t, err)
	return s
}

func newTestWinService(t *testing.T, ledger *store.Store, config WinConfig) WinService {
	t.Helper()
	if config.ReopenDelay == 0 {
		config.ReopenDelay = time.Hour
	}
	return NewWinService(ledger, events.NewBus(), config)
}

func TestWinService_ClaimAwardsPoint(t *testing.T) {
	ledger := newTestLedger(t)
	svc := newTestWinService(t, ledger, WinConfig{})

	outcome, err := svc.HandleMessage(context.Background(), "g1", "user1", "00:00", midnight)
	require.NoError(t, err)
	assert.Equal(t, models.WinOutcomeClaimed, outcome.Kind)

	guild, err := ledger.Guild("g1")
	require.NoError(t, err)
	assert.True(t, guild.Bucket.WinTaken)
	assert.Equal(t, "user1", guild.Bucket.LastWinner)

	entry, rank, err := ledger.Entry("g1", "user1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, rank)
	assert.Equal(t, 1, entry.Points)
	assert.Equal(t, midnight.UTC().Format(time.RFC1123), entry.LastWin())
}

func TestWinService_IgnoresOutsideMidnight(t *testing.T) {
	ledger := newTestLedger(t)
	svc := newTestWinService(t, ledger, WinConfig{})

	noon := time.Date(2026, 6, 1, 12, 34, 0, 0, time.UTC)
	outcome, err := svc.HandleMessage(context.Background(), "g1", "user1", "00:00", noon)
	require.NoError(t, err)
	assert.Equal(t, models.WinOutcomeIgnored, outcome.Kind)

	entry, _, err := ledger.Entry("g1", "user1")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestWinService_IgnoresWithoutTrigger(t *testing.T) {
	ledger := newTestLedger(t)
	svc := newTestWinService(t, ledger, WinConfig{})

	outcome, err := svc.HandleMessage(context.Background(), "g1", "user1", "good night", midnight)
	require.NoError(t, err)
	assert.Equal(t, models.WinOutcomeIgnored, outcome.Kind)
}

func TestWinService_TriggerAsSubstringQualifies(t *testing.T) {
	ledger := newTestLedger(t)
	svc := newTestWinService(t, ledger, WinConfig{})

	outcome, err := svc.HandleMessage(context.Background(), "g1", "user1", "it's 00:00 again!", midnight)
	require.NoError(t, err)
	assert.Equal(t, models.WinOutcomeClaimed, outcome.Kind)
}

func TestWinService_BypassTimeGate(t *testing.T) {
	ledger := newTestLedger(t)
	svc := newTestWinService(t, ledger, WinConfig{BypassTimeGate: true})

	noon := time.Date(2026, 6, 1, 12, 34, 0, 0, time.UTC)
	outcome, err := svc.HandleMessage(context.Background(), "g1", "user1", "00:00", noon)
	require.NoError(t, err)
	assert.Equal(t, models.WinOutcomeClaimed, outcome.Kind)
}

func TestWinService_UnregisteredGuildIgnored(t *testing.T) {
	ledger := newTestLedger(t)
	svc := newTestWinService(t, ledger, WinConfig{})

	outcome, err := svc.HandleMessage(context.Background(), "g2", "user1", "00:00", midnight)
	require.NoError(t, err)
	assert.Equal(t, models.WinOutcomeIgnored, outcome.Kind)
}

func TestWinService_RepeatWinnerIgnored(t *testing.T) {
	ledger := newTestLedger(t)
	svc := newTestWinService(t, ledger, WinConfig{})

	_, err := svc.HandleMessage(context.Background(), "g1", "user1", "00:00", midnight)
	require.NoError(t, err)

	outcome, err := svc.HandleMessage(context.Background(), "g1", "user1", "00:00", midnight)
	require.NoError(t, err)
	assert.Equal(t, models.WinOutcomeIgnored, outcome.Kind)

	entry, _, err := ledger.Entry("g1", "user1")
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Points)
	assert.Len(t, entry.History, 1)
}

func TestWinService_LateClaimantMisses(t *testing.T) {
	ledger := newTestLedger(t)
	svc := newTestWinService(t, ledger, WinConfig{})

	_, err := svc.HandleMessage(context.Background(), "g1", "user1", "00:00", midnight)
	require.NoError(t, err)

	outcome, err := svc.HandleMessage(context.Background(), "g1", "user2", "00:00", midnight.Add(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, models.WinOutcomeMiss, outcome.Kind)
	assert.Equal(t, "user1", outcome.LastWinner)

	entry, _, err := ledger.Entry("g1", "user2")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 0, entry.Points)
	assert.Equal(t, 1, entry.Misses)
	assert.Equal(t, models.HistoryNever, entry.LastWin())
}

func TestWinService_SimultaneousClaimsAwardOnePoint(t *testing.T) {
	ledger := newTestLedger(t)
	svc := newTestWinService(t, ledger, WinConfig{})

	const contenders = 16
	start := make(chan struct{})
	outcomes := make([]*models.WinOutcome, contenders)
	errs := make([]error, contenders)

	var wg sync.WaitGroup
	for n := 0; n < contenders; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			userID := fmt.Sprintf("user%d", n)
			outcomes[n], errs[n] = svc.HandleMessage(context.Background(), "g1", userID, "00:00", midnight)
		}(n)
	}
	close(start)
	wg.Wait()

	claims, misses := 0, 0
	winnerID := ""
	for n := range outcomes {
		require.NoError(t, errs[n])
		switch outcomes[n].Kind {
		case models.WinOutcomeClaimed:
			claims++
			winnerID = fmt.Sprintf("user%d", n)
		case models.WinOutcomeMiss:
			misses++
		}
	}
	assert.Equal(t, 1, claims)
	assert.Equal(t, contenders-1, misses)

	entry, _, err := ledger.Entry("g1", winnerID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.Points)
	assert.Equal(t, 0, entry.Misses)

	guild, err := ledger.Guild("g1")
	require.NoError(t, err)
	assert.Equal(t, winnerID, guild.Bucket.LastWinner)
}

func TestWinService_CooldownRejected(t *testing.T) {
	ledger := newTestLedger(t)
	svc := newTestWinService(t, ledger, WinConfig{})

	require.NoError(t, ledger.ApplyDelta("g1", "user1", models.Delta{CooldownNights: 2}))

	outcome, err := svc.HandleMessage(context.Background(), "g1", "user1", "00:00", midnight)
	require.NoError(t, err)
	assert.Equal(t, models.WinOutcomeCooldown, outcome.Kind)
	assert.Equal(t, 2, outcome.CooldownNights)

	// No point awarded and the window stays open
	entry, _, err := ledger.Entry("g1", "user1")
	require.NoError(t, err)
	assert.Equal(t, 0, entry.Points)

	guild, err := ledger.Guild("g1")
	require.NoError(t, err)
	assert.False(t, guild.Bucket.WinTaken)
}

func TestWinService_WindowReopens(t *testing.T) {
	ledger := newTestLedger(t)
	svc := newTestWinService(t, ledger, WinConfig{ReopenDelay: 20 * time.Millisecond})

	_, err := svc.HandleMessage(context.Background(), "g1", "user1", "00:00", midnight)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		guild, err := ledger.Guild("g1")
		return err == nil && !guild.Bucket.WinTaken
	}, time.Second, 10*time.Millisecond)

	// The next night's claim goes through
	outcome, err := svc.HandleMessage(context.Background(), "g1", "user2", "00:00", midnight.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.WinOutcomeClaimed, outcome.Kind)
}
