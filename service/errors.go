package service

import "errors"

// Validation and not-found errors are recovered locally by the bot layer
// and surfaced as user-facing replies. Anything else that reaches the bot
// layer is treated as a system failure.
var (
	ErrGuildNotRegistered     = errors.New("guild is not registered")
	ErrGuildAlreadyRegistered = errors.New("guild is already registered")
	ErrUserNotFound           = errors.New("user has no ledger record")

	ErrNoPreviousWinner    = errors.New("no previous winner to dispute")
	ErrDisputeWindowClosed = errors.New("dispute window has expired")
	ErrSelfChallenge       = errors.New("cannot start a dispute with yourself")
	ErrDisputeInProgress   = errors.New("another dispute is in progress")

	ErrNoActiveDispute     = errors.New("no dispute is active")
	ErrNotDisputeParty     = errors.New("user is not a party to the dispute")
	ErrAlreadyResponded    = errors.New("the defendant has already responded")
	ErrInvalidDisputeState = errors.New("dispute is not in the required state")
)
