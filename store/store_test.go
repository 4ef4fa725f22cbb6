package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querty/models"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zerozero.json")
	s, err := New(path)
	require.NoError(t, err)
	return s, path
}

func TestRegisterGuild(t *testing.T) {
	s, _ := newTestStore(t)

	created, err := s.RegisterGuild("g1", "Guild One")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.RegisterGuild("g1", "Guild One")
	require.NoError(t, err)
	assert.False(t, created)

	guild, err := s.Guild("g1")
	require.NoError(t, err)
	require.NotNil(t, guild)
	assert.Equal(t, "Guild One", guild.GuildName)
	assert.False(t, guild.Bucket.WinTaken)
}

func TestGuild_Unregistered(t *testing.T) {
	s, _ := newTestStore(t)

	guild, err := s.Guild("missing")
	require.NoError(t, err)
	assert.Nil(t, guild)

	entries, err := s.Rankings("missing")
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestApplyDelta_FirstContactAndAccumulate(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.RegisterGuild("g1", "Guild One")
	require.NoError(t, err)

	require.NoError(t, s.ApplyDelta("g1", "user1", models.Delta{Points: 1, History: "tonight"}))
	require.NoError(t, s.ApplyDelta("g1", "user1", models.Delta{Points: 1, History: "tomorrow"}))
	require.NoError(t, s.ApplyDelta("g1", "user1", models.Delta{Misses: 1}))

	entry, rank, err := s.Entry("g1", "user1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, rank)
	assert.Equal(t, 2, entry.Points)
	assert.Equal(t, 1, entry.Misses)
	assert.Equal(t, []string{"tonight", "tomorrow"}, entry.History)
}

func TestApplyDelta_UnregisteredGuild(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.ApplyDelta("missing", "user1", models.Delta{Points: 1})
	assert.Error(t, err)
}

func TestApplyDelta_ReordersRankings(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.RegisterGuild("g1", "Guild One")
	require.NoError(t, err)

	require.NoError(t, s.ApplyDelta("g1", "user1", models.Delta{Points: 1}))
	require.NoError(t, s.ApplyDelta("g1", "user2", models.Delta{Points: 1}))
	require.NoError(t, s.ApplyDelta("g1", "user2", models.Delta{Points: 1}))

	entries, err := s.Rankings("g1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "user2", entries[0].UserID)
	assert.Equal(t, "user1", entries[1].UserID)

	_, rank, err := s.Entry("g1", "user1")
	require.NoError(t, err)
	assert.Equal(t, 2, rank)
}

func TestClaimWinAndReopen(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.RegisterGuild("g1", "Guild One")
	require.NoError(t, err)

	claimed, winner, err := s.ClaimWin("g1", "user1")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, "user1", winner)

	guild, err := s.Guild("g1")
	require.NoError(t, err)
	assert.True(t, guild.Bucket.WinTaken)
	assert.Equal(t, "user1", guild.Bucket.LastWinner)

	require.NoError(t, s.ReopenWin("g1"))

	guild, err = s.Guild("g1")
	require.NoError(t, err)
	assert.False(t, guild.Bucket.WinTaken)
	// Reopening keeps the last winner on record
	assert.Equal(t, "user1", guild.Bucket.LastWinner)
}

func TestClaimWin_ClosedWindowRejected(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.RegisterGuild("g1", "Guild One")
	require.NoError(t, err)

	claimed, _, err := s.ClaimWin("g1", "user1")
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, winner, err := s.ClaimWin("g1", "user2")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, "user1", winner)

	guild, err := s.Guild("g1")
	require.NoError(t, err)
	assert.Equal(t, "user1", guild.Bucket.LastWinner)
}

func TestClaimWin_UnregisteredGuild(t *testing.T) {
	s, _ := newTestStore(t)

	_, _, err := s.ClaimWin("missing", "user1")
	assert.Error(t, err)
}

func TestBackupWrittenBeforeMutation(t *testing.T) {
	s, path := newTestStore(t)

	// First mutation writes the document but has nothing to back up yet
	_, err := s.RegisterGuild("g1", "Guild One")
	require.NoError(t, err)

	backups, err := filepath.Glob(filepath.Join(filepath.Dir(path), "zerozero.backup-*.json"))
	require.NoError(t, err)
	assert.Empty(t, backups)

	// Subsequent mutations snapshot the prior on-disk state first
	require.NoError(t, s.ApplyDelta("g1", "user1", models.Delta{Points: 1}))

	backups, err = filepath.Glob(filepath.Join(filepath.Dir(path), "zerozero.backup-*.json"))
	require.NoError(t, err)
	require.Len(t, backups, 1)

	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"g1"`)
	assert.NotContains(t, string(data), `"user1"`)
}

func TestReloadRoundtrip(t *testing.T) {
	s, path := newTestStore(t)
	_, err := s.RegisterGuild("g1", "Guild One")
	require.NoError(t, err)
	require.NoError(t, s.ApplyDelta("g1", "user1", models.Delta{Points: 1, History: "tonight"}))
	_, _, err = s.ClaimWin("g1", "user1")
	require.NoError(t, err)

	reloaded, err := New(path)
	require.NoError(t, err)

	guild, err := reloaded.Guild("g1")
	require.NoError(t, err)
	require.NotNil(t, guild)
	assert.True(t, guild.Bucket.WinTaken)
	assert.Equal(t, "user1", guild.Bucket.LastWinner)

	entry, rank, err := reloaded.Entry("g1", "user1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, rank)
	assert.Equal(t, 1, entry.Points)
	assert.Equal(t, []string{"tonight"}, entry.History)
}

func TestReaders_ReturnCopies(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.RegisterGuild("g1", "Guild One")
	require.NoError(t, err)
	require.NoError(t, s.ApplyDelta("g1", "user1", models.Delta{Points: 1}))

	guild, err := s.Guild("g1")
	require.NoError(t, err)
	guild.Bucket.Entries[0].Points = 99
	guild.Bucket.WinTaken = true

	fresh, err := s.Guild("g1")
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Bucket.Entries[0].Points)
	assert.False(t, fresh.Bucket.WinTaken)
}

func TestBackupPath(t *testing.T) {
	now := time.Date(2026, 6, 1, 23, 59, 59, 123_000_000, time.UTC)

	got := backupPath("settings/zerozero.json", now)
	assert.Equal(t, "settings/zerozero.backup-D2026-06-01-T23-59-59-123_UTC.json", got)
}
