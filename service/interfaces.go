package service

import (
	"context"
	"time"

	"querty/models"
)

// LedgerRepository defines the interface for ledger data access. All
// mutators persist the full document with a backup snapshot taken first;
// any returned error means the ledger cannot be assumed intact and must not
// be swallowed.
type LedgerRepository interface {
	// RegisterGuild creates an empty guild bucket; returns false when the
	// guild is already registered.
	RegisterGuild(guildID, guildName string) (bool, error)

	// ApplyDelta mutates a single user's entry, creating it on first contact
	ApplyDelta(guildID, userID string, d models.Delta) error

	// ClaimWin records tonight's winner and closes the win window when it is
	// still open. Returns claimed=false and the standing winner when another
	// claim already closed it.
	ClaimWin(guildID, winnerID string) (claimed bool, lastWinner string, err error)

	// ReopenWin reopens the win window
	ReopenWin(guildID string) error

	// Guild returns a copy of the guild state, or nil if not registered
	Guild(guildID string) (*models.Guild, error)

	// Rankings returns the guild's entries in ranking order
	Rankings(guildID string) ([]*models.LedgerEntry, error)

	// Entry returns a copy of a user's entry and their 1-based rank
	Entry(guildID, userID string) (*models.LedgerEntry, int, error)
}

// WinService classifies inbound messages against the nightly win window
type WinService interface {
	// HandleMessage decides whether a message wins, misses, is rejected for
	// cooldown, or is ignored, applying the corresponding ledger effects.
	HandleMessage(ctx context.Context, guildID, authorID, content string, sentAt time.Time) (*models.WinOutcome, error)
}

// DisputeService drives the challenge -> counter-claim -> vote workflow.
// At most one dispute session is active process-wide.
type DisputeService interface {
	// StartChallenge validates the challenge preconditions and, on success,
	// acquires the global dispute lock with the requester as claimant and
	// the guild's last winner as defendant.
	StartChallenge(ctx context.Context, guildID, claimantID string) (*models.DisputeSession, error)

	// AbandonChallenge releases a session still waiting on the claimant's
	// reason, e.g. when the reason form could not be shown. Sessions that
	// advanced past ChallengeRequested are not affected.
	AbandonChallenge(ctx context.Context, guildID, claimantID string) error

	// SubmitClaim records the claimant's reason and moves the session to
	// awaiting the defendant's counter-claim.
	SubmitClaim(ctx context.Context, guildID, claimantID, reason string) (*models.DisputeSession, error)

	// GiveUp resolves the dispute by explicit defendant forfeit: -1 point,
	// +1 challenge lost, no cooldown.
	GiveUp(ctx context.Context, guildID, userID string) (*models.DisputeOutcome, error)

	// ForfeitIfUnanswered resolves the dispute by timeout forfeit: -1 point,
	// +1 challenge lost, and a 3-night cooldown. Returns (nil, nil) when the
	// defendant already responded or no session is awaiting a response.
	ForfeitIfUnanswered(ctx context.Context, guildID string) (*models.DisputeOutcome, error)

	// SubmitCounterClaim records the defendant's counter-claim and moves the
	// session to the voting phase.
	SubmitCounterClaim(ctx context.Context, guildID, userID, counterClaim string) (*models.DisputeSession, error)

	// ResolveByVotes applies the vote tally (seed reactions already
	// discounted by the caller) and releases the dispute lock.
	ResolveByVotes(ctx context.Context, guildID string, claimVotes, defendVotes int) (*models.DisputeOutcome, error)

	// Session returns a snapshot of the active session, if any
	Session() (models.DisputeSession, bool)
}

// CooldownScheduler schedules the delayed decay of cooldown penalties
type CooldownScheduler interface {
	// ScheduleDecay schedules one -1 cooldown decrement per night at fixed
	// real-time offsets after imposition. The decrements are fire-and-forget;
	// ctx allows cancellation but defaults to never cancelling.
	ScheduleDecay(ctx context.Context, guildID, userID string, nights int)
}

// StandingsService serves the register/info/leaderboard command surface
type StandingsService interface {
	// RegisterGuild creates the guild bucket; returns ErrGuildAlreadyRegistered
	// when it exists.
	RegisterGuild(ctx context.Context, guildID, guildName string) error

	// Leaderboard returns the guild's entries in ranking order
	Leaderboard(ctx context.Context, guildID string) ([]*models.LedgerEntry, error)

	// UserInfo returns a user's entry and 1-based rank
	UserInfo(ctx context.Context, guildID, userID string) (*models.LedgerEntry, int, error)
}
