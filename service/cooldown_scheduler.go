package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"querty/events"
	"querty/models"
)

type cooldownScheduler struct {
	ledger LedgerRepository
	bus    *events.Bus
	// nightInterval is the real-time spacing between decrements (24h in
	// production; shortened in tests)
	nightInterval time.Duration
}

// NewCooldownScheduler creates a scheduler that decays cooldown penalties
// one night at a time at fixed offsets after imposition.
func NewCooldownScheduler(ledger LedgerRepository, bus *events.Bus, nightInterval time.Duration) CooldownScheduler {
	return &cooldownScheduler{
		ledger:        ledger,
		bus:           bus,
		nightInterval: nightInterval,
	}
}

// ScheduleDecay arms one independent timer per night: +1x, +2x, ... nx the
// night interval. The timers are fire-and-forget and are not cancelled when
// the user's cooldown changes by other means; a done ctx token turns a
// pending decrement into a no-op.
func (s *cooldownScheduler) ScheduleDecay(ctx context.Context, guildID, userID string, nights int) {
	for night := 1; night <= nights; night++ {
		remaining := nights - night
		time.AfterFunc(time.Duration(night)*s.nightInterval, func() {
			if ctx.Err() != nil {
				return
			}
			if err := s.ledger.ApplyDelta(guildID, userID, models.Delta{CooldownNights: -1}); err != nil {
				// No caller to propagate to; log the full chain and abandon
				// this decrement. The store aborts before writing anything
				// on failure, so the ledger base state stays intact.
				log.WithError(err).WithFields(log.Fields{
					"guild_id": guildID,
					"user_id":  userID,
				}).Error("Failed to apply cooldown decay")
				return
			}
			s.bus.Emit(context.Background(), events.CooldownDecayedEvent{
				GuildID:   guildID,
				UserID:    userID,
				Remaining: remaining,
			})
		})
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"user_id":  userID,
		"nights":   nights,
	}).Info("Cooldown decay scheduled")
}
