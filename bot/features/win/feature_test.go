package win

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"querty/models"
)

type stubWinService struct {
	outcome *models.WinOutcome
	err     error
}

func (s stubWinService) HandleMessage(ctx context.Context, guildID, authorID, content string, sentAt time.Time) (*models.WinOutcome, error) {
	return s.outcome, s.err
}

func newMidnightMessage(guildID string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		GuildID: guildID,
		Author:  &discordgo.User{ID: "user1", Username: "user one"},
		Content: "00:00",
	}}
}

func TestHandleMessage_LedgerErrorLoggedWithoutReply(t *testing.T) {
	f := NewFeature(stubWinService{err: errors.New("write failed")})

	// A zero session cannot send anything; reaching a reply would panic
	assert.NotPanics(t, func() {
		f.HandleMessage(&discordgo.Session{}, newMidnightMessage("g1"))
	})
}

func TestHandleMessage_IgnoredOutcomeIsSilent(t *testing.T) {
	f := NewFeature(stubWinService{outcome: &models.WinOutcome{Kind: models.WinOutcomeIgnored}})

	assert.NotPanics(t, func() {
		f.HandleMessage(&discordgo.Session{}, newMidnightMessage("g1"))
	})
}

func TestHandleMessage_DirectMessageSkipped(t *testing.T) {
	f := NewFeature(stubWinService{err: errors.New("should not be called")})

	assert.NotPanics(t, func() {
		f.HandleMessage(&discordgo.Session{}, newMidnightMessage(""))
	})
}
