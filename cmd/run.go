package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"querty/bot"
	"querty/config"
	"querty/events"
	"querty/service"
	"querty/store"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting 00:00 bot...")

	// Load configuration
	cfg := config.Get()

	// Open the ledger store
	log.Println("Opening ledger store...")
	ledger, err := store.New(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("failed to open ledger store: %w", err)
	}
	log.Println("Ledger store opened successfully")

	// Initialize event bus
	log.Println("Initializing event bus...")
	eventBus := events.NewBus()
	log.Println("Event bus initialized successfully")

	// Initialize services
	log.Println("Initializing services...")
	cooldownScheduler := service.NewCooldownScheduler(ledger, eventBus, cfg.CooldownNightInterval)
	winService := service.NewWinService(ledger, eventBus, service.WinConfig{
		ReopenDelay:    cfg.WinReopenDelay,
		BypassTimeGate: cfg.BypassTimeGate,
	})
	disputeService := service.NewDisputeService(ledger, cooldownScheduler, eventBus, service.DisputeConfig{
		AllowSelfChallenge: cfg.AllowSelfChallenge,
		ClaimTimeout:       cfg.ClaimTimeout,
	})
	standingsService := service.NewStandingsService(ledger, eventBus)
	log.Println("Services initialized successfully")

	// Initialize Discord bot
	log.Println("Initializing Discord bot...")
	botConfig := bot.Config{
		Token:          cfg.DiscordToken,
		ForfeitTimeout: cfg.ForfeitTimeout,
		VotePeriod:     cfg.VotePeriod,
		IsAdmin:        cfg.IsAdmin,
	}
	discordBot, err := bot.New(botConfig, winService, disputeService, standingsService, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Println("Discord bot initialized successfully")

	// Wait for context cancellation
	log.Printf("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down bot...")

	// Close Discord bot connection
	if err := discordBot.Close(); err != nil {
		log.Printf("Error closing Discord bot: %v", err)
	}

	// Give in-flight timers and event handlers time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
