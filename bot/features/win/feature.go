// Package win listens for qualifying midnight messages and replies with the
// win, miss or cooldown verdict.
package win

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"querty/bot/common"
	"querty/models"
	"querty/service"
)

// Feature drives the nightly win window from the message stream
type Feature struct {
	wins service.WinService
}

// NewFeature creates the win feature
func NewFeature(wins service.WinService) *Feature {
	return &Feature{wins: wins}
}

func (f *Feature) Name() string { return "ZeroZero" }

func (f *Feature) Version() string { return "1.0" }

// ApplicationCommands returns no commands; this feature is message-driven
func (f *Feature) ApplicationCommands() []*discordgo.ApplicationCommand {
	return nil
}

// HandleMessage classifies an inbound guild message against the win window
func (f *Feature) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" {
		return
	}

	sentAt := m.Timestamp
	outcome, err := f.wins.HandleMessage(context.Background(), m.GuildID, m.Author.ID, m.Content, sentAt)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"guild_id": m.GuildID,
			"user_id":  m.Author.ID,
		}).Error("Ledger mutation failed while handling win message")
		return
	}

	switch outcome.Kind {
	case models.WinOutcomeClaimed:
		common.ReplyWithEmbed(s, m.Message, common.NewEmbed(common.ColorWin,
			fmt.Sprintf(":trophy: Congrats %s, you win!", m.Author.Username),
			"You've been awarded **1** point, thanks for competing for the 00:00. Good night!"))

	case models.WinOutcomeMiss:
		winnerName := "The winner"
		if name, err := common.GetDisplayName(s, m.GuildID, outcome.LastWinner); err == nil {
			winnerName = name
		}
		common.ReplyWithEmbed(s, m.Message, common.NewEmbed(common.ColorNegative,
			":snail: You were too slow!",
			fmt.Sprintf("**%s** got 00:00 before you. Better luck next time.", winnerName)))

	case models.WinOutcomeCooldown:
		common.ReplyWithEmbed(s, m.Message, common.NewEmbed(common.ColorNegative,
			":ice_cube: Cooldown!",
			fmt.Sprintf("You were not awarded the point because you have an outstanding **%d** night cooldown.", outcome.CooldownNights)))
	}
}
