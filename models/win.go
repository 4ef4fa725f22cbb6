package models

// WinOutcomeKind classifies what an inbound qualifying message did
type WinOutcomeKind string

const (
	// WinOutcomeIgnored means the message had no ledger effect and gets no
	// reply: wrong guild, not qualifying, or the standing winner repeating
	// their own message.
	WinOutcomeIgnored WinOutcomeKind = "ignored"

	// WinOutcomeClaimed means the message claimed tonight's win
	WinOutcomeClaimed WinOutcomeKind = "claimed"

	// WinOutcomeMiss means the win was already taken and the author was
	// charged a miss.
	WinOutcomeMiss WinOutcomeKind = "miss"

	// WinOutcomeCooldown means the author is serving a cooldown and was
	// rejected with no ledger effect.
	WinOutcomeCooldown WinOutcomeKind = "cooldown"
)

// WinOutcome is the result of classifying an inbound message against the
// win window.
type WinOutcome struct {
	Kind WinOutcomeKind
	// LastWinner is the standing winner, set for WinOutcomeMiss
	LastWinner string
	// CooldownNights is the author's remaining cooldown, set for
	// WinOutcomeCooldown.
	CooldownNights int
}
