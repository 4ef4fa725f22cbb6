// Package store owns the persisted ledger document. Every mutation is
// bracketed by durability operations: a timestamped backup copy of the
// current on-disk state before the change, and a full-document save after.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"querty/models"
)

// Store is the file-backed ledger store. A single mutex serializes all
// mutations so each call observes a consistent document; the original
// runtime used a spin-wait boolean flag for the same purpose.
type Store struct {
	mu   sync.Mutex
	path string
	doc  *models.Document
}

// New opens the ledger store at path, loading the existing document or
// starting an empty one when the file does not exist yet.
func New(path string) (*Store, error) {
	s := &Store{
		path: path,
		doc:  &models.Document{},
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("path", path).Info("No ledger document found, starting empty")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger document: %w", err)
	}
	if err := json.Unmarshal(data, s.doc); err != nil {
		return nil, fmt.Errorf("failed to parse ledger document %s: %w", path, err)
	}

	log.WithFields(log.Fields{
		"path":   path,
		"guilds": len(s.doc.Guilds),
	}).Info("Ledger document loaded")
	return s, nil
}

// RegisterGuild creates an empty guild bucket. Returns (false, nil) when the
// guild is already registered.
func (s *Store) RegisterGuild(guildID, guildName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.Guild(guildID) != nil {
		return false, nil
	}

	if err := s.backupLocked(); err != nil {
		return false, err
	}

	s.doc.Guilds = append(s.doc.Guilds, &models.Guild{
		GuildID:   guildID,
		GuildName: guildName,
	})

	if err := s.saveLocked(); err != nil {
		return false, err
	}

	log.WithFields(log.Fields{
		"guild_id":   guildID,
		"guild_name": guildName,
	}).Info("Guild registered")
	return true, nil
}

// ApplyDelta mutates a single user's ledger entry. On first contact the
// entry is created from the deltas themselves; otherwise each numeric delta
// is added and a non-empty history entry appended. The guild's entries are
// re-sorted by ranking order after the mutation.
func (s *Store) ApplyDelta(guildID, userID string, d models.Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	guild := s.doc.Guild(guildID)
	if guild == nil {
		return fmt.Errorf("guild %s is not registered", guildID)
	}

	if err := s.backupLocked(); err != nil {
		return err
	}

	if entry := guild.Bucket.Entry(userID); entry != nil {
		entry.Apply(d)
	} else {
		guild.Bucket.Entries = append(guild.Bucket.Entries, models.NewEntry(userID, d))
	}
	models.SortEntries(guild.Bucket.Entries)

	return s.saveLocked()
}

// ClaimWin records winnerID as tonight's winner and closes the win window,
// but only when the window is still open. Check and mutation happen under
// the same lock, so concurrent claimants cannot both succeed: the loser gets
// claimed=false and the standing winner, with the document left untouched.
func (s *Store) ClaimWin(guildID, winnerID string) (claimed bool, lastWinner string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	guild := s.doc.Guild(guildID)
	if guild == nil {
		return false, "", fmt.Errorf("guild %s is not registered", guildID)
	}
	if guild.Bucket.WinTaken {
		return false, guild.Bucket.LastWinner, nil
	}

	if err := s.backupLocked(); err != nil {
		return false, "", err
	}

	guild.Bucket.WinTaken = true
	guild.Bucket.LastWinner = winnerID

	if err := s.saveLocked(); err != nil {
		return false, "", err
	}
	return true, winnerID, nil
}

// ReopenWin reopens the win window after the reopen interval elapses
func (s *Store) ReopenWin(guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	guild := s.doc.Guild(guildID)
	if guild == nil {
		return fmt.Errorf("guild %s is not registered", guildID)
	}

	if err := s.backupLocked(); err != nil {
		return err
	}

	guild.Bucket.WinTaken = false

	return s.saveLocked()
}

// Guild returns a deep copy of the guild's state, or nil when the guild is
// not registered.
func (s *Store) Guild(guildID string) (*models.Guild, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	guild := s.doc.Guild(guildID)
	if guild == nil {
		return nil, nil
	}
	return cloneGuild(guild), nil
}

// Rankings returns the guild's entries in ranking order, or nil when the
// guild is not registered.
func (s *Store) Rankings(guildID string) ([]*models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	guild := s.doc.Guild(guildID)
	if guild == nil {
		return nil, nil
	}

	entries := make([]*models.LedgerEntry, 0, len(guild.Bucket.Entries))
	for _, e := range guild.Bucket.Entries {
		entries = append(entries, e.Clone())
	}
	return entries, nil
}

// Entry returns a copy of a user's ledger entry and their 1-based rank.
// The entry is nil when either the guild or the user has no record.
func (s *Store) Entry(guildID, userID string) (*models.LedgerEntry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	guild := s.doc.Guild(guildID)
	if guild == nil {
		return nil, 0, nil
	}
	entry := guild.Bucket.Entry(userID)
	if entry == nil {
		return nil, 0, nil
	}
	return entry.Clone(), guild.Bucket.Rank(userID), nil
}

// backupLocked copies the current on-disk document to a timestamped sibling
// file before any mutation touches it. Skipped when no document has been
// written yet. Callers must hold the mutex.
func (s *Store) backupLocked() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read ledger document for backup: %w", err)
	}

	backupPath := backupPath(s.path, time.Now().UTC())
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger backup %s: %w", backupPath, err)
	}

	log.WithField("path", backupPath).Debug("Ledger backup written")
	return nil
}

// saveLocked writes the full document to disk. Callers must hold the mutex.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger document: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger document: %w", err)
	}
	return nil
}

// backupPath derives the timestamped backup filename for the document,
// e.g. zerozero.json -> zerozero.backup-D2022-06-01-T23-59-59-123_UTC.json
func backupPath(path string, now time.Time) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	stamp := fmt.Sprintf("%s-%03d_UTC", now.Format("D2006-01-02-T15-04-05"), now.Nanosecond()/1e6)
	return fmt.Sprintf("%s.backup-%s%s", base, stamp, ext)
}

func cloneGuild(g *models.Guild) *models.Guild {
	clone := &models.Guild{
		GuildID:   g.GuildID,
		GuildName: g.GuildName,
		Bucket: models.Bucket{
			WinTaken:   g.Bucket.WinTaken,
			LastWinner: g.Bucket.LastWinner,
		},
	}
	for _, e := range g.Bucket.Entries {
		clone.Bucket.Entries = append(clone.Bucket.Entries, e.Clone())
	}
	return clone
}
