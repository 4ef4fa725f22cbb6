package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"querty/events"
	"querty/models"
)

// ForfeitCooldownNights is the cooldown imposed on a dispute loser when the
// loss carries a penalty (timeout forfeit or lost vote). An explicit
// give-up deliberately carries no cooldown.
const ForfeitCooldownNights = 3

// DisputeConfig holds the dispute workflow parameters
type DisputeConfig struct {
	// AllowSelfChallenge bypasses the self-challenge precondition.
	// Testing aid, off in production.
	AllowSelfChallenge bool

	// ClaimTimeout bounds how long a freshly opened session may wait for the
	// claimant's reason before the dispute lock is released. Discord never
	// reports a dismissed modal, so without the expiry an abandoned form
	// would hold the lock until restart. Zero disables the expiry.
	ClaimTimeout time.Duration
}

type disputeService struct {
	ledger    LedgerRepository
	cooldowns CooldownScheduler
	bus       *events.Bus
	config    DisputeConfig

	// One dispute session process-wide, across all guilds. The spec keeps
	// this limitation as documented behavior; widening to per-guild
	// sessions changes what users observe and needs a product decision.
	mu      sync.Mutex
	session *models.DisputeSession
}

// NewDisputeService creates a new dispute workflow service
func NewDisputeService(ledger LedgerRepository, cooldowns CooldownScheduler, bus *events.Bus, config DisputeConfig) DisputeService {
	return &disputeService{
		ledger:    ledger,
		cooldowns: cooldowns,
		bus:       bus,
		config:    config,
	}
}

// StartChallenge validates the challenge preconditions and acquires the
// global dispute lock on success.
func (s *disputeService) StartChallenge(ctx context.Context, guildID, claimantID string) (*models.DisputeSession, error) {
	guild, err := s.ledger.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild %s: %w", guildID, err)
	}
	if guild == nil {
		return nil, ErrGuildNotRegistered
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if guild.Bucket.LastWinner == claimantID && !s.config.AllowSelfChallenge {
		return nil, ErrSelfChallenge
	}
	if s.session != nil {
		return nil, ErrDisputeInProgress
	}
	if guild.Bucket.LastWinner == "" {
		return nil, ErrNoPreviousWinner
	}
	if !guild.Bucket.WinTaken {
		return nil, ErrDisputeWindowClosed
	}

	s.session = &models.DisputeSession{
		GuildID:     guildID,
		ClaimantID:  claimantID,
		DefendantID: guild.Bucket.LastWinner,
		State:       models.DisputeStateChallengeRequested,
		StartedAt:   time.Now(),
	}

	if s.config.ClaimTimeout > 0 {
		startedAt := s.session.StartedAt
		time.AfterFunc(s.config.ClaimTimeout, func() {
			s.expireChallenge(guildID, startedAt)
		})
	}

	log.WithFields(log.Fields{
		"guild_id":  guildID,
		"claimant":  claimantID,
		"defendant": s.session.DefendantID,
	}).Info("Dispute session opened")

	snapshot := *s.session
	return &snapshot, nil
}

// expireChallenge releases a session whose claimant never submitted a
// reason. StartedAt identifies the session the timer was armed for, so a
// stale timer cannot release a later dispute. No ledger effect.
func (s *disputeService) expireChallenge(guildID string, startedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.GuildID != guildID ||
		s.session.State != models.DisputeStateChallengeRequested ||
		!s.session.StartedAt.Equal(startedAt) {
		return
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"claimant": s.session.ClaimantID,
	}).Info("Dispute challenge expired without a claim")
	s.session = nil
}

// AbandonChallenge releases a session still waiting on the claimant's
// reason, for when the reason form cannot be shown.
func (s *disputeService) AbandonChallenge(ctx context.Context, guildID, claimantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.GuildID != guildID {
		return ErrNoActiveDispute
	}
	if s.session.ClaimantID != claimantID {
		return ErrNotDisputeParty
	}
	if s.session.State != models.DisputeStateChallengeRequested {
		return ErrInvalidDisputeState
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"claimant": claimantID,
	}).Info("Dispute challenge abandoned")
	s.session = nil
	return nil
}

// SubmitClaim records the claimant's reason and awaits the counter-claim
func (s *disputeService) SubmitClaim(ctx context.Context, guildID, claimantID, reason string) (*models.DisputeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.GuildID != guildID {
		return nil, ErrNoActiveDispute
	}
	if s.session.ClaimantID != claimantID {
		return nil, ErrNotDisputeParty
	}
	if s.session.State != models.DisputeStateChallengeRequested {
		return nil, ErrInvalidDisputeState
	}

	s.session.ClaimReason = reason
	s.session.Responded = false
	s.session.State = models.DisputeStateAwaitingCounterClaim

	snapshot := *s.session
	return &snapshot, nil
}

// GiveUp resolves the dispute by explicit forfeit. The defendant loses a
// point and records a lost challenge, but no cooldown is imposed; only the
// timeout forfeit carries one.
func (s *disputeService) GiveUp(ctx context.Context, guildID, userID string) (*models.DisputeOutcome, error) {
	s.mu.Lock()

	if s.session == nil || s.session.GuildID != guildID {
		s.mu.Unlock()
		return nil, ErrNoActiveDispute
	}
	if s.session.DefendantID != userID {
		s.mu.Unlock()
		return nil, ErrNotDisputeParty
	}
	if s.session.Responded {
		s.mu.Unlock()
		return nil, ErrAlreadyResponded
	}
	if s.session.State != models.DisputeStateAwaitingCounterClaim {
		s.mu.Unlock()
		return nil, ErrInvalidDisputeState
	}

	s.session.Responded = true
	session := s.releaseLocked()
	s.mu.Unlock()

	if err := s.ledger.ApplyDelta(guildID, session.DefendantID, models.Delta{Points: -1, Lost: 1}); err != nil {
		return nil, fmt.Errorf("failed to apply give-up penalty: %w", err)
	}

	outcome := &models.DisputeOutcome{
		Session: session,
		Verdict: models.VerdictClaimantWins,
	}
	s.emitResolved(ctx, outcome)
	return outcome, nil
}

// ForfeitIfUnanswered resolves the dispute by timeout forfeit. Unlike an
// explicit give-up, the defendant additionally incurs a 3-night cooldown.
// Returns (nil, nil) when the timer raced a response and there is nothing
// to do.
func (s *disputeService) ForfeitIfUnanswered(ctx context.Context, guildID string) (*models.DisputeOutcome, error) {
	s.mu.Lock()

	if s.session == nil || s.session.GuildID != guildID ||
		s.session.State != models.DisputeStateAwaitingCounterClaim || s.session.Responded {
		s.mu.Unlock()
		return nil, nil
	}

	s.session.Responded = true
	session := s.releaseLocked()
	s.mu.Unlock()

	delta := models.Delta{Points: -1, CooldownNights: ForfeitCooldownNights, Lost: 1}
	if err := s.ledger.ApplyDelta(guildID, session.DefendantID, delta); err != nil {
		return nil, fmt.Errorf("failed to apply timeout forfeit penalty: %w", err)
	}
	s.cooldowns.ScheduleDecay(ctx, guildID, session.DefendantID, ForfeitCooldownNights)

	outcome := &models.DisputeOutcome{
		Session:        session,
		Verdict:        models.VerdictClaimantWins,
		ByTimeout:      true,
		CooldownNights: ForfeitCooldownNights,
	}
	s.emitResolved(ctx, outcome)
	return outcome, nil
}

// SubmitCounterClaim records the defendant's case and opens the vote
func (s *disputeService) SubmitCounterClaim(ctx context.Context, guildID, userID, counterClaim string) (*models.DisputeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.GuildID != guildID {
		return nil, ErrNoActiveDispute
	}
	if s.session.DefendantID != userID {
		return nil, ErrNotDisputeParty
	}
	if s.session.Responded {
		return nil, ErrAlreadyResponded
	}
	if s.session.State != models.DisputeStateAwaitingCounterClaim {
		return nil, ErrInvalidDisputeState
	}

	s.session.Responded = true
	s.session.CounterClaim = counterClaim
	s.session.State = models.DisputeStateVoting

	snapshot := *s.session
	return &snapshot, nil
}

// ResolveByVotes applies the vote tally and releases the dispute lock. The
// caller has already discounted the bot's seed reactions from both counts.
func (s *disputeService) ResolveByVotes(ctx context.Context, guildID string, claimVotes, defendVotes int) (*models.DisputeOutcome, error) {
	s.mu.Lock()

	if s.session == nil || s.session.GuildID != guildID {
		s.mu.Unlock()
		return nil, ErrNoActiveDispute
	}
	if s.session.State != models.DisputeStateVoting {
		s.mu.Unlock()
		return nil, ErrInvalidDisputeState
	}

	session := s.releaseLocked()
	s.mu.Unlock()

	outcome := &models.DisputeOutcome{
		Session:     session,
		ClaimVotes:  claimVotes,
		DefendVotes: defendVotes,
	}

	switch {
	case claimVotes > defendVotes:
		outcome.Verdict = models.VerdictClaimantWins
	case defendVotes > claimVotes:
		outcome.Verdict = models.VerdictDefendantWins
	default:
		outcome.Verdict = models.VerdictStale
	}

	if outcome.Verdict == models.VerdictStale {
		if err := s.ledger.ApplyDelta(guildID, session.DefendantID, models.Delta{Staled: 1}); err != nil {
			return nil, fmt.Errorf("failed to record stale vote: %w", err)
		}
		if err := s.ledger.ApplyDelta(guildID, session.ClaimantID, models.Delta{Staled: 1}); err != nil {
			return nil, fmt.Errorf("failed to record stale vote: %w", err)
		}
		s.emitResolved(ctx, outcome)
		return outcome, nil
	}

	loserID, winnerID := outcome.LoserID(), outcome.WinnerID()
	outcome.CooldownNights = ForfeitCooldownNights

	loserDelta := models.Delta{Points: -1, CooldownNights: ForfeitCooldownNights, Lost: 1}
	if err := s.ledger.ApplyDelta(guildID, loserID, loserDelta); err != nil {
		return nil, fmt.Errorf("failed to apply vote penalty: %w", err)
	}
	s.cooldowns.ScheduleDecay(ctx, guildID, loserID, ForfeitCooldownNights)

	if err := s.ledger.ApplyDelta(guildID, winnerID, models.Delta{Points: 1, Won: 1}); err != nil {
		return nil, fmt.Errorf("failed to apply vote compensation: %w", err)
	}

	s.emitResolved(ctx, outcome)
	return outcome, nil
}

// Session returns a snapshot of the active session, if any
func (s *disputeService) Session() (models.DisputeSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return models.DisputeSession{}, false
	}
	return *s.session, true
}

// releaseLocked marks the session resolved, clears it, and returns the
// final snapshot. Callers must hold the mutex.
func (s *disputeService) releaseLocked() models.DisputeSession {
	s.session.State = models.DisputeStateResolved
	session := *s.session
	s.session = nil
	return session
}

func (s *disputeService) emitResolved(ctx context.Context, outcome *models.DisputeOutcome) {
	log.WithFields(log.Fields{
		"guild_id":   outcome.Session.GuildID,
		"claimant":   outcome.Session.ClaimantID,
		"defendant":  outcome.Session.DefendantID,
		"verdict":    outcome.Verdict,
		"by_timeout": outcome.ByTimeout,
	}).Info("Dispute resolved")

	s.bus.Emit(ctx, events.DisputeResolvedEvent{
		GuildID:     outcome.Session.GuildID,
		ClaimantID:  outcome.Session.ClaimantID,
		DefendantID: outcome.Session.DefendantID,
		Verdict:     string(outcome.Verdict),
		ByTimeout:   outcome.ByTimeout,
	})
}
