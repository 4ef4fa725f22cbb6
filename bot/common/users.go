package common

import (
	"github.com/bwmarrin/discordgo"
)

// GetDisplayName returns the server-specific display name for a user,
// falling back to the bare username. Returns an error when the user cannot
// be resolved at all (e.g. a stale ID in the ledger).
func GetDisplayName(s *discordgo.Session, guildID, userID string) (string, error) {
	member, err := s.GuildMember(guildID, userID)
	if err == nil && member != nil {
		if member.Nick != "" {
			return member.Nick, nil
		}
		if member.User != nil {
			return member.User.Username, nil
		}
	}

	user, err := s.User(userID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}
