package models

import "sort"

// HistoryNever is the sentinel stored in a ledger entry's history when the
// user has never won.
const HistoryNever = "Never"

// ChallengeRecord tracks a user's dispute outcomes
type ChallengeRecord struct {
	Won    int `json:"won"`
	Lost   int `json:"lost"`
	Staled int `json:"stale"`
}

// LedgerEntry is a user's cumulative score record within a guild
type LedgerEntry struct {
	UserID         string          `json:"user_id"`
	Points         int             `json:"points"`
	Misses         int             `json:"misses"`
	CooldownNights int             `json:"cooldown"`
	History        []string        `json:"history"`
	Challenges     ChallengeRecord `json:"challenges"`
}

// Bucket holds a guild's win-window state and ledger entries
type Bucket struct {
	WinTaken   bool           `json:"win_taken"`
	LastWinner string         `json:"last_winner"`
	Entries    []*LedgerEntry `json:"data"`
}

// Guild is the per-guild partition of the ledger document
type Guild struct {
	GuildID   string `json:"guild_id"`
	GuildName string `json:"guild_name"`
	Bucket    Bucket `json:"bucket"`
}

// Document is the persisted ledger dataset, one per deployment
type Document struct {
	Guilds []*Guild `json:"guilds"`
}

// Delta describes a single ledger mutation. Numeric fields are added to the
// existing entry (or act as initial values on first contact); a non-empty
// History is appended, never replacing prior entries.
type Delta struct {
	Points         int
	Misses         int
	CooldownNights int
	History        string
	Won            int
	Lost           int
	Staled         int
}

// NetScore is the ranking key: points minus misses
func (e *LedgerEntry) NetScore() int {
	return e.Points - e.Misses
}

// LastWin returns the most recent history entry, or HistoryNever
func (e *LedgerEntry) LastWin() string {
	if len(e.History) == 0 {
		return HistoryNever
	}
	return e.History[len(e.History)-1]
}

// OnCooldown reports whether the user currently has a cooldown penalty
func (e *LedgerEntry) OnCooldown() bool {
	return e.CooldownNights > 0
}

// Apply adds the delta's numeric fields to the entry and appends the history
// entry when present.
func (e *LedgerEntry) Apply(d Delta) {
	e.Points += d.Points
	e.Misses += d.Misses
	e.CooldownNights += d.CooldownNights
	if d.History != "" {
		e.History = append(e.History, d.History)
	}
	e.Challenges.Won += d.Won
	e.Challenges.Lost += d.Lost
	e.Challenges.Staled += d.Staled
}

// NewEntry creates a ledger entry on first contact: the deltas act as the
// initial field values, and history starts with the delta's entry or the
// HistoryNever sentinel.
func NewEntry(userID string, d Delta) *LedgerEntry {
	history := d.History
	if history == "" {
		history = HistoryNever
	}
	return &LedgerEntry{
		UserID:         userID,
		Points:         d.Points,
		Misses:         d.Misses,
		CooldownNights: d.CooldownNights,
		History:        []string{history},
		Challenges: ChallengeRecord{
			Won:    d.Won,
			Lost:   d.Lost,
			Staled: d.Staled,
		},
	}
}

// SortEntries orders entries by net score descending. The sort is stable so
// entries with equal net score keep their existing relative order.
func SortEntries(entries []*LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].NetScore() > entries[j].NetScore()
	})
}

// Entry returns the ledger entry for a user, or nil if none exists
func (b *Bucket) Entry(userID string) *LedgerEntry {
	for _, e := range b.Entries {
		if e.UserID == userID {
			return e
		}
	}
	return nil
}

// Rank returns the 1-based rank of a user within the bucket, or 0 if the
// user has no entry. Entries are assumed already sorted.
func (b *Bucket) Rank(userID string) int {
	for i, e := range b.Entries {
		if e.UserID == userID {
			return i + 1
		}
	}
	return 0
}

// Guild returns the guild with the given ID, or nil if not registered
func (d *Document) Guild(guildID string) *Guild {
	for _, g := range d.Guilds {
		if g.GuildID == guildID {
			return g
		}
	}
	return nil
}

// Clone returns a deep copy of the entry
func (e *LedgerEntry) Clone() *LedgerEntry {
	clone := *e
	clone.History = append([]string(nil), e.History...)
	return &clone
}
