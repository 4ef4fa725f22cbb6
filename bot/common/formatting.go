package common

import (
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Embed colors, one per reply mood
const (
	ColorInteract  = 0x00ff33
	ColorSecondary = 0x00aaff
	ColorWin       = 0xeeee00
	ColorNegative  = 0xff00ff
	ColorPositive  = 0x00ff00
	ColorError     = 0xff0000
)

// EmbedFooter is stamped on every embed the bot sends
const EmbedFooter = "00:00 by Querty OSS"

// NewEmbed creates a timestamped embed with the standard footer
func NewEmbed(color int, title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       color,
		Title:       title,
		Description: description,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: EmbedFooter},
	}
}

var digitEmoji = []string{":zero:", ":one:", ":two:", ":three:", ":four:", ":five:", ":six:", ":seven:", ":eight:", ":nine:"}

// EmojiNumber renders an integer as a string of Discord digit emoji
func EmojiNumber(n int) string {
	var result string
	for _, digit := range strconv.Itoa(n) {
		if digit == '-' {
			continue
		}
		result += digitEmoji[digit-'0']
	}
	return result
}

var rankEmoji = []string{":first_place:", ":second_place:", ":third_place:", ":four:", ":five:"}

// RankEmoji renders a 1-based rank: medals for the podium, digit emoji
// beyond the top five.
func RankEmoji(rank int) string {
	if rank >= 1 && rank <= len(rankEmoji) {
		return rankEmoji[rank-1]
	}
	return EmojiNumber(rank)
}
