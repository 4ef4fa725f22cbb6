package bot

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"querty/bot/common"
	"querty/bot/features/diag"
	"querty/bot/features/disputes"
	"querty/bot/features/standings"
	"querty/bot/features/win"
	"querty/events"
	"querty/service"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token          string
	ForfeitTimeout time.Duration
	VotePeriod     time.Duration
	// IsAdmin gates the diagnostic commands
	IsAdmin func(userID string) bool
}

type Bot struct {
	config   Config
	session  *discordgo.Session
	registry *Registry
	eventBus *events.Bus
}

func New(config Config, winService service.WinService, disputeService service.DisputeService, standingsService service.StandingsService, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll

	bot := &Bot{
		config:   config,
		session:  dg,
		registry: NewRegistry(),
		eventBus: eventBus,
	}

	// Static feature registry: each feature declares its name, version and
	// commands at compile time.
	bot.registry.Register(standings.NewFeature(standingsService))
	bot.registry.Register(win.NewFeature(winService))
	bot.registry.Register(disputes.NewFeature(disputeService, disputes.Config{
		ForfeitTimeout: config.ForfeitTimeout,
		VotePeriod:     config.VotePeriod,
	}))
	bot.registry.Register(diag.NewFeature(config.IsAdmin))

	for _, f := range bot.registry.All() {
		log.WithFields(log.Fields{
			"feature": f.Name(),
			"version": f.Version(),
		}).Info("Feature registered")
	}

	dg.AddHandler(bot.handleInteraction)
	dg.AddHandler(bot.handleMessage)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	bot.subscribeEvents()

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) registerCommands() error {
	for _, cmd := range b.registry.Commands() {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}
	return nil
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.GuildID == "" {
			common.RespondWithError(s, i, "You must be in a guild to use this command.")
			return
		}
		name := i.ApplicationCommandData().Name
		feature, ok := b.registry.ByCommand(name)
		if !ok {
			log.Warnf("No feature owns command %q", name)
			return
		}
		if handler, ok := feature.(CommandHandler); ok {
			handler.HandleCommand(s, i)
		}

	case discordgo.InteractionMessageComponent:
		for _, f := range b.registry.All() {
			if handler, ok := f.(ComponentHandler); ok && handler.HandleComponent(s, i) {
				return
			}
		}
		log.Warnf("Unhandled component customID: %s", i.MessageComponentData().CustomID)

	case discordgo.InteractionModalSubmit:
		for _, f := range b.registry.All() {
			if handler, ok := f.(ModalHandler); ok && handler.HandleModal(s, i) {
				return
			}
		}
		log.Warnf("Unhandled modal customID: %s", i.ModalSubmitData().CustomID)
	}
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}
	for _, f := range b.registry.All() {
		if handler, ok := f.(MessageHandler); ok {
			handler.HandleMessage(s, m)
		}
	}
}

// subscribeEvents wires the bot to domain events: audit logging for
// resolutions and a courtesy DM when a user's cooldown fully decays.
func (b *Bot) subscribeEvents() {
	b.eventBus.Subscribe(events.EventTypeDisputeResolved, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.DisputeResolvedEvent); ok {
			log.WithFields(log.Fields{
				"guild_id":   e.GuildID,
				"claimant":   e.ClaimantID,
				"defendant":  e.DefendantID,
				"verdict":    e.Verdict,
				"by_timeout": e.ByTimeout,
			}).Info("Dispute resolution recorded")
		}
	})

	b.eventBus.Subscribe(events.EventTypeCooldownDecayed, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.CooldownDecayedEvent)
		if !ok || e.Remaining > 0 {
			return
		}
		channel, err := b.session.UserChannelCreate(e.UserID)
		if err != nil {
			log.WithError(err).WithField("user_id", e.UserID).Warn("Could not open DM for cooldown notice")
			return
		}
		embed := common.NewEmbed(common.ColorPositive, ":sunrise: Cooldown over",
			"Your 00:00 cooldown has fully expired. You can compete again tonight.")
		if _, err := b.session.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
			log.WithError(err).WithField("user_id", e.UserID).Warn("Could not send cooldown notice")
		}
	})
}
