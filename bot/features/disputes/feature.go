// Package disputes drives the challenge -> counter-claim -> vote workflow
// over slash commands, buttons, modals and message reactions.
package disputes

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"querty/service"
)

// Custom IDs for the dispute interactions
const (
	challengeModalID  = "challenge_request_modal"
	challengeReasonID = "challenge_reason"
	counterModalID    = "dispute_modal"
	counterReasonID   = "dispute_reason"
	buttonCounterID   = "reply_counter_claim"
	buttonGiveUpID    = "reply_give_up"
)

// Vote reactions: crossed swords favor the claimant, shield the defendant
const (
	claimEmoji  = "⚔️"
	defendEmoji = "🛡️"
)

// Config holds the dispute timers
type Config struct {
	// ForfeitTimeout is how long the defendant has to respond
	ForfeitTimeout time.Duration
	// VotePeriod is how long the public vote stays open
	VotePeriod time.Duration
}

// Feature owns the /challenge command and its interaction flow
type Feature struct {
	disputes service.DisputeService
	config   Config
}

// NewFeature creates the disputes feature
func NewFeature(disputes service.DisputeService, config Config) *Feature {
	return &Feature{
		disputes: disputes,
		config:   config,
	}
}

func (f *Feature) Name() string { return "Disputes" }

func (f *Feature) Version() string { return "1.0" }

// ApplicationCommands returns the slash commands this feature registers
func (f *Feature) ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "challenge",
			Description: "Dispute tonight's recorded 00:00 winner",
		},
	}
}

// HandleCommand routes the /challenge command
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleChallenge(s, i)
}

// HandleComponent routes the defendant's response buttons
func (f *Feature) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	switch i.MessageComponentData().CustomID {
	case buttonGiveUpID:
		f.handleGiveUp(s, i)
		return true
	case buttonCounterID:
		f.handleCounterButton(s, i)
		return true
	}
	return false
}

// HandleModal routes the claim and counter-claim forms
func (f *Feature) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	switch i.ModalSubmitData().CustomID {
	case challengeModalID:
		f.handleClaimModal(s, i)
		return true
	case counterModalID:
		f.handleCounterModal(s, i)
		return true
	}
	return false
}
