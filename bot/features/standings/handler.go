package standings

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"querty/bot/common"
	"querty/models"
	"querty/service"
)

// leaderboardSize caps how many ranks the leaderboard embed shows
const leaderboardSize = 5

func (f *Feature) handleRegister(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildName := i.GuildID
	if guild, err := s.Guild(i.GuildID); err == nil {
		guildName = guild.Name
	}

	err := f.standings.RegisterGuild(ctx, i.GuildID, guildName)
	if errors.Is(err, service.ErrGuildAlreadyRegistered) {
		embed := common.NewEmbed(common.ColorSecondary, ":ballot_box: This guild is already registered.",
			"You can play 00:00 tonight.")
		if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
			log.Errorf("Error responding to register command: %v", err)
		}
		return
	}
	if err != nil {
		common.HandleError(s, i, common.NewSystemError(err, "Failed to register guild"), false)
		return
	}

	embed := common.NewEmbed(common.ColorPositive, ":white_check_mark: This guild is now registered to play 00:00",
		"You can play 00:00 tonight.")
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.Errorf("Error responding to register command: %v", err)
	}
}

func (f *Feature) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring leaderboard response: %v", err)
		return
	}

	entries, err := f.standings.Leaderboard(ctx, i.GuildID)
	if errors.Is(err, service.ErrGuildNotRegistered) {
		f.editWithEmbed(s, i, common.NewEmbed(common.ColorSecondary, ":mag: No records found for this guild",
			"You may need to register using the `/register` command."))
		return
	}
	if err != nil {
		log.WithError(err).WithField("guild_id", i.GuildID).Error("Failed to load leaderboard")
		f.editWithEmbed(s, i, common.NewEmbed(common.ColorError, ":x: Something went wrong", "Please try again later."))
		return
	}

	guildName := i.GuildID
	if guild, err := s.Guild(i.GuildID); err == nil {
		guildName = guild.Name
	}

	embed := common.NewEmbed(common.ColorInteract, fmt.Sprintf(":star: Leaderboard for **%s**", guildName), "")
	for rank, entry := range entries {
		if rank >= leaderboardSize {
			break
		}
		name, err := common.GetDisplayName(s, i.GuildID, entry.UserID)
		if err != nil {
			// Stale ledger ID; skip the row rather than fail the board
			log.WithError(err).WithField("user_id", entry.UserID).Warn("Leaderboard user lookup failed")
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s %s", common.RankEmoji(rank+1), name),
			Value: fmt.Sprintf("• Points: **%d**", entry.Points),
		})
	}

	f.editWithEmbed(s, i, embed)
}

func (f *Feature) handleInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring info response: %v", err)
		return
	}

	target := i.Member.User
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "member" {
			target = opt.UserValue(s)
		}
	}

	entry, rank, err := f.standings.UserInfo(ctx, i.GuildID, target.ID)
	if errors.Is(err, service.ErrGuildNotRegistered) {
		f.editWithEmbed(s, i, common.NewEmbed(common.ColorSecondary, ":mag: No records found for this guild",
			"You may need to register using the `/register` command."))
		return
	}
	if errors.Is(err, service.ErrUserNotFound) {
		f.editWithEmbed(s, i, common.NewEmbed(common.ColorSecondary,
			fmt.Sprintf(":mag: No records found for **%s**", target.Username),
			"An action like winning 00:00 or challenging another winner will create a record."))
		return
	}
	if err != nil {
		log.WithError(err).WithField("user_id", target.ID).Error("Failed to load user info")
		f.editWithEmbed(s, i, common.NewEmbed(common.ColorError, ":x: Something went wrong", "Please try again later."))
		return
	}

	f.editWithEmbed(s, i, infoEmbed(target.Username, entry, rank))
}

func infoEmbed(username string, entry *models.LedgerEntry, rank int) *discordgo.MessageEmbed {
	embed := common.NewEmbed(common.ColorInteract, fmt.Sprintf(":open_file_folder: Info for **%s**", username), "")
	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name:  "Rank",
			Value: common.RankEmoji(rank),
		},
		{
			Name: "Summary",
			Value: fmt.Sprintf("• Points: **%d**\n• Misses: **%d**\n• Cooldown: **%d** nights\n• Last Win: **%s**",
				entry.Points, entry.Misses, entry.CooldownNights, entry.LastWin()),
		},
		{
			Name: "Disputes",
			Value: fmt.Sprintf("• Won: **%d**\n• Lost: **%d**\n• Staled: **%d**",
				entry.Challenges.Won, entry.Challenges.Lost, entry.Challenges.Staled),
		},
	}
	return embed
}

func (f *Feature) editWithEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if err := common.EditResponseWithEmbed(s, i, embed); err != nil {
		log.Errorf("Error editing deferred response: %v", err)
	}
}
