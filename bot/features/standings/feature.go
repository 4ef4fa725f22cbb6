// Package standings owns the register, info and leaderboard commands.
package standings

import (
	"github.com/bwmarrin/discordgo"

	"querty/bot/common"
	"querty/service"
)

// Feature serves the ledger query command surface
type Feature struct {
	standings service.StandingsService
}

// NewFeature creates the standings feature
func NewFeature(standings service.StandingsService) *Feature {
	return &Feature{standings: standings}
}

func (f *Feature) Name() string { return "Standings" }

func (f *Feature) Version() string { return "1.0" }

// ApplicationCommands returns the slash commands this feature registers
func (f *Feature) ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "register",
			Description: "Register this guild to play 00:00",
		},
		{
			Name:        "leaderboard",
			Description: "Show the 00:00 leaderboard for this guild",
		},
		{
			Name:        "info",
			Description: "Show a player's 00:00 record",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Player to look up (defaults to you)",
					Required:    false,
				},
			},
		},
	}
}

// HandleCommand routes this feature's slash commands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "register":
		f.handleRegister(s, i)
	case "leaderboard":
		f.handleLeaderboard(s, i)
	case "info":
		f.handleInfo(s, i)
	default:
		common.RespondWithError(s, i, "Unknown command.")
	}
}
