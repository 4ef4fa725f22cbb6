package service

import (
	"context"
	"fmt"

	"querty/events"
	"querty/models"
)

type standingsService struct {
	ledger LedgerRepository
	bus    *events.Bus
}

// NewStandingsService creates a new standings service
func NewStandingsService(ledger LedgerRepository, bus *events.Bus) StandingsService {
	return &standingsService{
		ledger: ledger,
		bus:    bus,
	}
}

// RegisterGuild creates the guild bucket
func (s *standingsService) RegisterGuild(ctx context.Context, guildID, guildName string) error {
	created, err := s.ledger.RegisterGuild(guildID, guildName)
	if err != nil {
		return fmt.Errorf("failed to register guild: %w", err)
	}
	if !created {
		return ErrGuildAlreadyRegistered
	}

	s.bus.Emit(ctx, events.GuildRegisteredEvent{GuildID: guildID, GuildName: guildName})
	return nil
}

// Leaderboard returns the guild's entries in ranking order
func (s *standingsService) Leaderboard(ctx context.Context, guildID string) ([]*models.LedgerEntry, error) {
	entries, err := s.ledger.Rankings(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rankings: %w", err)
	}
	if entries == nil {
		return nil, ErrGuildNotRegistered
	}
	return entries, nil
}

// UserInfo returns a user's entry and 1-based rank
func (s *standingsService) UserInfo(ctx context.Context, guildID, userID string) (*models.LedgerEntry, int, error) {
	guild, err := s.ledger.Guild(guildID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load guild: %w", err)
	}
	if guild == nil {
		return nil, 0, ErrGuildNotRegistered
	}

	entry, rank, err := s.ledger.Entry(guildID, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load entry: %w", err)
	}
	if entry == nil {
		return nil, 0, ErrUserNotFound
	}
	return entry, rank, nil
}
