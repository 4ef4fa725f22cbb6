package models

import "time"

// DisputeState represents the phase of the dispute workflow
type DisputeState string

const (
	DisputeStateChallengeRequested   DisputeState = "challenge_requested"
	DisputeStateAwaitingCounterClaim DisputeState = "awaiting_counter_claim"
	DisputeStateVoting               DisputeState = "voting"
	DisputeStateResolved             DisputeState = "resolved"
)

// DisputeVerdict is the outcome of a resolved dispute
type DisputeVerdict string

const (
	VerdictClaimantWins  DisputeVerdict = "claimant_wins"
	VerdictDefendantWins DisputeVerdict = "defendant_wins"
	VerdictStale         DisputeVerdict = "stale"
)

// DisputeSession is the state of one active dispute. Only one session may
// exist process-wide at a time.
type DisputeSession struct {
	GuildID      string
	ClaimantID   string
	DefendantID  string
	ClaimReason  string
	CounterClaim string
	Responded    bool
	State        DisputeState
	StartedAt    time.Time
}

// DisputeOutcome describes a completed dispute resolution
type DisputeOutcome struct {
	Session     DisputeSession
	Verdict     DisputeVerdict
	ByTimeout   bool
	ClaimVotes  int
	DefendVotes int
	// CooldownNights imposed on the losing party (0 when none)
	CooldownNights int
}

// LoserID returns the party penalized by the verdict, or "" for a stale vote
func (o *DisputeOutcome) LoserID() string {
	switch o.Verdict {
	case VerdictClaimantWins:
		return o.Session.DefendantID
	case VerdictDefendantWins:
		return o.Session.ClaimantID
	}
	return ""
}

// WinnerID returns the prevailing party, or "" for a stale vote
func (o *DisputeOutcome) WinnerID() string {
	switch o.Verdict {
	case VerdictClaimantWins:
		return o.Session.ClaimantID
	case VerdictDefendantWins:
		return o.Session.DefendantID
	}
	return ""
}
