package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmojiNumber(t *testing.T) {
	assert.Equal(t, ":seven:", EmojiNumber(7))
	assert.Equal(t, ":one::two:", EmojiNumber(12))
	assert.Equal(t, ":zero:", EmojiNumber(0))
	assert.Equal(t, ":three:", EmojiNumber(-3))
}

func TestRankEmoji(t *testing.T) {
	assert.Equal(t, ":first_place:", RankEmoji(1))
	assert.Equal(t, ":second_place:", RankEmoji(2))
	assert.Equal(t, ":third_place:", RankEmoji(3))
	assert.Equal(t, ":four:", RankEmoji(4))
	assert.Equal(t, ":five:", RankEmoji(5))
	assert.Equal(t, ":six:", RankEmoji(6))
	assert.Equal(t, ":one::zero:", RankEmoji(10))
	assert.Equal(t, ":zero:", RankEmoji(0))
}

func TestNewEmbed(t *testing.T) {
	embed := NewEmbed(ColorWin, "title", "description")

	assert.Equal(t, ColorWin, embed.Color)
	assert.Equal(t, "title", embed.Title)
	assert.Equal(t, "description", embed.Description)
	assert.Equal(t, EmbedFooter, embed.Footer.Text)
	assert.NotEmpty(t, embed.Timestamp)
}
