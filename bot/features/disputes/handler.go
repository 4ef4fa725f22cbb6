package disputes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"querty/bot/common"
	"querty/models"
	"querty/service"
)

// handleChallenge validates preconditions via the service and, on success,
// shows the claimant the reason form.
func (f *Feature) handleChallenge(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	session, err := f.disputes.StartChallenge(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		f.respondChallengeError(s, i, err)
		return
	}

	title := "Challenge tonight's winner?"
	if name, err := common.GetDisplayName(s, i.GuildID, session.DefendantID); err == nil {
		title = fmt.Sprintf("Challenge %s?", name)
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: challengeModalID,
			Title:    title,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    challengeReasonID,
							Label:       "Provide a reason for this dispute",
							Style:       discordgo.TextInputParagraph,
							Placeholder: "e.g. The winner posted before midnight or edited their message",
							Required:    true,
							MaxLength:   128,
						},
					},
				},
			},
		},
	})
	if err != nil {
		// The claimant never saw the form, so the session would sit in
		// ChallengeRequested holding the lock; release it now.
		log.WithError(err).Error("Failed to open challenge modal")
		if aErr := f.disputes.AbandonChallenge(ctx, i.GuildID, i.Member.User.ID); aErr != nil {
			log.WithError(aErr).Warn("Failed to release dispute session after modal error")
		}
	}
}

func (f *Feature) respondChallengeError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	var embed *discordgo.MessageEmbed

	switch {
	case errors.Is(err, service.ErrGuildNotRegistered):
		embed = common.NewEmbed(common.ColorSecondary, ":mag: No records found for this guild",
			"You may need to register using the `/register` command.")
	case errors.Is(err, service.ErrSelfChallenge):
		embed = common.NewEmbed(common.ColorSecondary, ":robot: Self Incriminating?",
			"You can't start a dispute with yourself. I mean, you could but... you'd gain nothing from yourself since you simultaneously lose and win... you get the idea right?")
	case errors.Is(err, service.ErrDisputeInProgress):
		description := "Wait for the current dispute to resolve before starting another."
		if session, ok := f.disputes.Session(); ok {
			claimant, cErr := common.GetDisplayName(s, session.GuildID, session.ClaimantID)
			defendant, dErr := common.GetDisplayName(s, session.GuildID, session.DefendantID)
			if cErr == nil && dErr == nil {
				description = fmt.Sprintf("There is currently a dispute between **%s** and **%s**.", claimant, defendant)
			}
		}
		embed = common.NewEmbed(common.ColorSecondary, ":lock: A dispute is in progress", description)
	case errors.Is(err, service.ErrNoPreviousWinner):
		embed = common.NewEmbed(common.ColorSecondary, ":grey_question: Unable to start dispute",
			"There is no previous winner to start a dispute with.")
	case errors.Is(err, service.ErrDisputeWindowClosed):
		embed = common.NewEmbed(common.ColorSecondary, ":clock1: Unable to start dispute",
			"The 6-minute dispute window has expired. If you suspect a severe violation, please submit all evidence to the bot administrator.")
	default:
		common.HandleError(s, i, common.NewSystemError(err, "Failed to start challenge"), false)
		return
	}

	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.Errorf("Error responding to challenge command: %v", err)
	}
}

// handleClaimModal records the claim, announces the dispute with the
// defendant's response buttons, and arms the forfeit timer.
func (f *Feature) handleClaimModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	reason := modalInput(i.ModalSubmitData(), challengeReasonID)

	session, err := f.disputes.SubmitClaim(ctx, i.GuildID, i.Member.User.ID, reason)
	if err != nil {
		common.HandleError(s, i, common.NewUserError("The dispute is no longer open for your claim.", err.Error()), false)
		return
	}

	confirm := common.NewEmbed(common.ColorInteract, ":white_check_mark: Dispute submitted",
		"The other party will be notified and will be able to make a counter argument before voting begins.")
	if err := common.RespondWithEmbed(s, i, confirm, nil, true); err != nil {
		log.Errorf("Error confirming claim submission: %v", err)
	}

	announce := common.NewEmbed(common.ColorInteract, ":scales: Make your counter claim before it's too late!",
		fmt.Sprintf("If you don't make a counter claim within %d minutes, the claimant will automatically win.",
			int(f.config.ForfeitTimeout.Minutes())))

	buttons := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: buttonCounterID,
					Label:    "Dispute Claim",
					Style:    discordgo.PrimaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
				},
				discordgo.Button{
					CustomID: buttonGiveUpID,
					Label:    "Plead Guilty",
					Style:    discordgo.SecondaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "❌"},
				},
			},
		},
	}

	content := fmt.Sprintf("<@%s>, <@%s> has started a dispute with you!", session.DefendantID, session.ClaimantID)
	msg, err := common.FollowUpWithEmbed(s, i, content, announce, buttons)
	if err != nil {
		log.WithError(err).Error("Failed to announce dispute")
		return
	}

	f.armForfeitTimer(s, i.GuildID, msg.ChannelID)
}

// armForfeitTimer forfeits the dispute if the defendant never responds.
// The service call is a no-op when the timer races a response.
func (f *Feature) armForfeitTimer(s *discordgo.Session, guildID, channelID string) {
	time.AfterFunc(f.config.ForfeitTimeout, func() {
		outcome, err := f.disputes.ForfeitIfUnanswered(context.Background(), guildID)
		if err != nil {
			log.WithError(err).WithField("guild_id", guildID).Error("Failed to apply timeout forfeit")
			return
		}
		if outcome == nil {
			return
		}

		claimant := f.displayName(s, guildID, outcome.Session.ClaimantID)
		embed := common.NewEmbed(common.ColorNegative,
			fmt.Sprintf(":crossed_swords: **%s** has won the dispute!", claimant),
			fmt.Sprintf("The defendant, <@%s> has not responded to the dispute so has been deducted 1 point and has incurred a %d-night cooldown but NO compensation will be awarded to the claimant.",
				outcome.Session.DefendantID, outcome.CooldownNights))
		if _, err := common.SendEmbed(s, channelID, embed); err != nil {
			log.WithError(err).Error("Failed to post forfeit notice")
		}
	})
}

// handleGiveUp resolves the dispute by explicit forfeit
func (f *Feature) handleGiveUp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	outcome, err := f.disputes.GiveUp(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		f.respondButtonError(s, i, err)
		return
	}

	claimant := f.displayName(s, i.GuildID, outcome.Session.ClaimantID)
	embed := common.NewEmbed(common.ColorNegative,
		fmt.Sprintf(":crossed_swords: **%s** has won the dispute!", claimant),
		fmt.Sprintf("The defendant, <@%s> has pleaded guilty so has been deducted 1 point but NO compensation will be awarded to the claimant.",
			outcome.Session.DefendantID))
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.Errorf("Error responding to give-up: %v", err)
	}
}

// handleCounterButton opens the counter-claim form for the defendant
func (f *Feature) handleCounterButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	session, ok := f.disputes.Session()
	if !ok || session.GuildID != i.GuildID {
		f.respondButtonError(s, i, service.ErrNoActiveDispute)
		return
	}
	if session.DefendantID != i.Member.User.ID {
		f.respondButtonError(s, i, service.ErrNotDisputeParty)
		return
	}
	if session.Responded {
		f.respondButtonError(s, i, service.ErrAlreadyResponded)
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: counterModalID,
			Title:    "Defend your Case",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    counterReasonID,
							Label:       "Why is your win legitimate?",
							Style:       discordgo.TextInputParagraph,
							Placeholder: "e.g. You are a fast typer and/or you were accurately observing the time",
							Required:    true,
							MaxLength:   128,
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.WithError(err).Error("Failed to open counter-claim modal")
	}
}

func (f *Feature) respondButtonError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	switch {
	case errors.Is(err, service.ErrNotDisputeParty):
		description := "The interaction is only meant to be used by the accused."
		if session, ok := f.disputes.Session(); ok {
			description = fmt.Sprintf("The interaction is only meant to be used by <@%s>.", session.DefendantID)
		}
		embed := common.NewEmbed(common.ColorError, ":no_entry: You can't do that!", description)
		if rErr := common.RespondWithEmbed(s, i, embed, nil, true); rErr != nil {
			log.Errorf("Error responding to dispute button: %v", rErr)
		}
	case errors.Is(err, service.ErrAlreadyResponded):
		embed := common.NewEmbed(common.ColorError, ":speech_balloon: You've already replied.",
			"Sorry but you can't make a change once you've submitted your response.")
		if rErr := common.RespondWithEmbed(s, i, embed, nil, true); rErr != nil {
			log.Errorf("Error responding to dispute button: %v", rErr)
		}
	case errors.Is(err, service.ErrNoActiveDispute), errors.Is(err, service.ErrInvalidDisputeState):
		common.RespondWithError(s, i, "This dispute is no longer active.")
	default:
		common.HandleError(s, i, common.NewSystemError(err, "Failed to handle dispute response"), false)
	}
}

// handleCounterModal records the counter-claim, opens the public vote with
// seeded reactions, and schedules the reminders and the tally.
func (f *Feature) handleCounterModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	counterClaim := modalInput(i.ModalSubmitData(), counterReasonID)

	session, err := f.disputes.SubmitCounterClaim(ctx, i.GuildID, i.Member.User.ID, counterClaim)
	if err != nil {
		f.respondButtonError(s, i, err)
		return
	}

	confirm := common.NewEmbed(common.ColorInteract, ":white_check_mark: Dispute submitted",
		"A vote will commence now. Good luck.")
	if err := common.RespondWithEmbed(s, i, confirm, nil, true); err != nil {
		log.Errorf("Error confirming counter-claim: %v", err)
	}

	claimant := f.displayName(s, i.GuildID, session.ClaimantID)
	defendant := f.displayName(s, i.GuildID, session.DefendantID)

	vote := common.NewEmbed(common.ColorInteract, ":fire: The dispute has commenced!",
		fmt.Sprintf("Vote now in the next %d seconds to reach a final verdict. Vote with :crossed_swords: to vote for <@%s> and vote :shield: for <@%s>.",
			int(f.config.VotePeriod.Seconds()), session.ClaimantID, session.DefendantID))
	vote.Fields = []*discordgo.MessageEmbedField{
		{
			Name:  fmt.Sprintf("Claimant, %s says:", claimant),
			Value: fmt.Sprintf("*\"%s\"*", session.ClaimReason),
		},
		{
			Name:  fmt.Sprintf("Defendant, %s says:", defendant),
			Value: fmt.Sprintf("*\"%s\"*", session.CounterClaim),
		},
	}

	msg, err := common.FollowUpWithEmbed(s, i, "", vote, nil)
	if err != nil {
		log.WithError(err).Error("Failed to post vote message")
		return
	}

	// Seed one reaction per side so voters only have to click
	for _, emoji := range []string{claimEmoji, defendEmoji} {
		if err := s.MessageReactionAdd(msg.ChannelID, msg.ID, emoji); err != nil {
			log.WithError(err).WithField("emoji", emoji).Warn("Failed to seed vote reaction")
		}
	}

	f.scheduleVote(s, i.GuildID, msg.ChannelID, msg.ID)
}

// scheduleVote arms the countdown reminders and the final tally
func (f *Feature) scheduleVote(s *discordgo.Session, guildID, channelID, messageID string) {
	period := f.config.VotePeriod

	reminders := []struct {
		after time.Duration
		embed *discordgo.MessageEmbed
	}{
		{period / 2, common.NewEmbed(common.ColorSecondary, ":clock1230: **The clock is ticking!**",
			common.EmojiNumber(int((period / 2).Seconds())) + " seconds left!")},
		{period - 10*time.Second, common.NewEmbed(common.ColorSecondary, ":one::zero: **seconds left!**",
			"Vote now if you haven't already!")},
		{period - time.Second, common.NewEmbed(common.ColorSecondary, ":drum: **Vote closing!**",
			"Results will be displayed now. :arrow_down:")},
	}
	for _, r := range reminders {
		if r.after <= 0 {
			continue
		}
		embed := r.embed
		time.AfterFunc(r.after, func() {
			if _, err := common.SendEmbed(s, channelID, embed); err != nil {
				log.WithError(err).Warn("Failed to post vote reminder")
			}
		})
	}

	time.AfterFunc(period, func() {
		f.tallyVotes(s, guildID, channelID, messageID)
	})
}

// tallyVotes reads the reaction counts, discounts the seeds, resolves the
// dispute and announces the verdict.
func (f *Feature) tallyVotes(s *discordgo.Session, guildID, channelID, messageID string) {
	ctx := context.Background()

	msg, err := s.ChannelMessage(channelID, messageID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch vote message for tally")
		return
	}

	claimVotes := reactionCount(msg, claimEmoji)
	defendVotes := reactionCount(msg, defendEmoji)

	outcome, err := f.disputes.ResolveByVotes(ctx, guildID, claimVotes, defendVotes)
	if err != nil {
		log.WithError(err).WithField("guild_id", guildID).Error("Failed to resolve dispute by votes")
		return
	}

	common.ReplyWithEmbed(s, msg, f.verdictEmbed(s, outcome))
}

func (f *Feature) verdictEmbed(s *discordgo.Session, outcome *models.DisputeOutcome) *discordgo.MessageEmbed {
	guildID := outcome.Session.GuildID
	claimant := f.displayName(s, guildID, outcome.Session.ClaimantID)
	defendant := f.displayName(s, guildID, outcome.Session.DefendantID)

	var embed *discordgo.MessageEmbed
	switch outcome.Verdict {
	case models.VerdictClaimantWins:
		embed = common.NewEmbed(common.ColorNegative,
			fmt.Sprintf(":crossed_swords: **%s** has won the dispute!", claimant),
			fmt.Sprintf("The defendant, <@%s> has lost the dispute and has been deducted 1 point alongside a cooldown of %d nights. The claimant has been compensated.",
				outcome.Session.DefendantID, outcome.CooldownNights))
	case models.VerdictDefendantWins:
		embed = common.NewEmbed(common.ColorPositive,
			fmt.Sprintf(":shield: **%s** has won the dispute!", defendant),
			fmt.Sprintf("The claimant, <@%s> has lost the dispute and has been deducted 1 point alongside a cooldown of %d nights. The defendant will be compensated.",
				outcome.Session.ClaimantID, outcome.CooldownNights))
	default:
		embed = common.NewEmbed(common.ColorSecondary, ":bread: Vote is stale!",
			"A verdict could not be decided so the case is dismissed. The defendant does not incur any penalties nor is the claimant compensated.")
	}

	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name:  fmt.Sprintf(":crossed_swords: Votes in favour of **%s**", claimant),
			Value: fmt.Sprintf("%d", outcome.ClaimVotes),
		},
		{
			Name:  fmt.Sprintf(":shield: Votes in favour of **%s**", defendant),
			Value: fmt.Sprintf("%d", outcome.DefendVotes),
		},
	}
	return embed
}

// displayName resolves a guild display name, falling back to a mention when
// the lookup fails.
func (f *Feature) displayName(s *discordgo.Session, guildID, userID string) string {
	name, err := common.GetDisplayName(s, guildID, userID)
	if err != nil {
		return fmt.Sprintf("<@%s>", userID)
	}
	return name
}

// reactionCount returns the vote count for an emoji minus the bot's seed
func reactionCount(msg *discordgo.Message, emoji string) int {
	for _, r := range msg.Reactions {
		if r.Emoji != nil && r.Emoji.Name == emoji {
			if r.Count > 0 {
				return r.Count - 1
			}
			return 0
		}
	}
	return 0
}

// modalInput extracts a text input value from a modal submission
func modalInput(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionsRow.Components {
			input, ok := component.(*discordgo.TextInput)
			if ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}
