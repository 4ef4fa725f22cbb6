package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"querty/events"
	"querty/models"
)

// TriggerPhrase is the substring a message must contain to qualify
const TriggerPhrase = "00:00"

// WinConfig holds the win window parameters
type WinConfig struct {
	// ReopenDelay is how long the window stays claimed before reopening
	ReopenDelay time.Duration
	// BypassTimeGate disables the midnight check; qualifying then depends
	// only on the trigger phrase. Testing aid, off in production.
	BypassTimeGate bool
}

type winService struct {
	ledger LedgerRepository
	bus    *events.Bus
	config WinConfig
}

// NewWinService creates a new win window service
func NewWinService(ledger LedgerRepository, bus *events.Bus, config WinConfig) WinService {
	return &winService{
		ledger: ledger,
		bus:    bus,
		config: config,
	}
}

// HandleMessage classifies an inbound message against the guild's win window
// and applies the corresponding ledger effects.
func (s *winService) HandleMessage(ctx context.Context, guildID, authorID, content string, sentAt time.Time) (*models.WinOutcome, error) {
	guild, err := s.ledger.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild %s: %w", guildID, err)
	}
	if guild == nil {
		return &models.WinOutcome{Kind: models.WinOutcomeIgnored}, nil
	}

	if !s.qualifies(content, sentAt) {
		return &models.WinOutcome{Kind: models.WinOutcomeIgnored}, nil
	}

	// The standing winner repeating their message has no effect at all
	if guild.Bucket.WinTaken && guild.Bucket.LastWinner == authorID {
		return &models.WinOutcome{Kind: models.WinOutcomeIgnored}, nil
	}

	if entry := guild.Bucket.Entry(authorID); entry != nil && entry.OnCooldown() {
		return &models.WinOutcome{
			Kind:           models.WinOutcomeCooldown,
			CooldownNights: entry.CooldownNights,
		}, nil
	}

	if guild.Bucket.WinTaken {
		return s.recordMiss(ctx, guildID, authorID, guild.Bucket.LastWinner)
	}

	// The snapshot above can go stale between two simultaneous midnight
	// messages; the store arbitrates who actually takes the window.
	claimed, lastWinner, err := s.ledger.ClaimWin(guildID, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim win: %w", err)
	}
	if !claimed {
		if lastWinner == authorID {
			return &models.WinOutcome{Kind: models.WinOutcomeIgnored}, nil
		}
		return s.recordMiss(ctx, guildID, authorID, lastWinner)
	}
	s.scheduleReopen(ctx, guildID)

	delta := models.Delta{Points: 1, History: sentAt.UTC().Format(time.RFC1123)}
	if err := s.ledger.ApplyDelta(guildID, authorID, delta); err != nil {
		return nil, fmt.Errorf("failed to award win: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"user_id":  authorID,
	}).Info("Win claimed")
	s.bus.Emit(ctx, events.WinClaimedEvent{GuildID: guildID, WinnerID: authorID})

	return &models.WinOutcome{Kind: models.WinOutcomeClaimed}, nil
}

// recordMiss charges a miss against an author who arrived after the window
// closed and reports who beat them to it.
func (s *winService) recordMiss(ctx context.Context, guildID, authorID, winnerID string) (*models.WinOutcome, error) {
	if err := s.ledger.ApplyDelta(guildID, authorID, models.Delta{Misses: 1}); err != nil {
		return nil, fmt.Errorf("failed to record miss: %w", err)
	}
	s.bus.Emit(ctx, events.WinMissedEvent{
		GuildID:  guildID,
		UserID:   authorID,
		WinnerID: winnerID,
	})
	return &models.WinOutcome{
		Kind:       models.WinOutcomeMiss,
		LastWinner: winnerID,
	}, nil
}

// qualifies reports whether a message competes for the win: it must contain
// the trigger phrase and, unless bypassed, arrive in the midnight minute.
func (s *winService) qualifies(content string, sentAt time.Time) bool {
	if !strings.Contains(content, TriggerPhrase) {
		return false
	}
	if s.config.BypassTimeGate {
		return true
	}
	return sentAt.Hour() == 0 && sentAt.Minute() == 0
}

// scheduleReopen arms the window-reopen timer. The timer is never cancelled;
// if the ctx token is done by the time it fires, it becomes a no-op.
func (s *winService) scheduleReopen(ctx context.Context, guildID string) {
	time.AfterFunc(s.config.ReopenDelay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := s.ledger.ReopenWin(guildID); err != nil {
			log.WithError(err).WithField("guild_id", guildID).Error("Failed to reopen win window")
		}
	})
}
