package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeGuildRegistered EventType = "guild_registered"
	EventTypeWinClaimed      EventType = "win_claimed"
	EventTypeWinMissed       EventType = "win_missed"
	EventTypeDisputeResolved EventType = "dispute_resolved"
	EventTypeCooldownDecayed EventType = "cooldown_decayed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// GuildRegisteredEvent fires when a guild bucket is created
type GuildRegisteredEvent struct {
	GuildID   string
	GuildName string
}

func (e GuildRegisteredEvent) Type() EventType {
	return EventTypeGuildRegistered
}

// WinClaimedEvent fires when tonight's win is claimed in a guild
type WinClaimedEvent struct {
	GuildID  string
	WinnerID string
}

func (e WinClaimedEvent) Type() EventType {
	return EventTypeWinClaimed
}

// WinMissedEvent fires when a qualifying message arrives after the win was
// already taken.
type WinMissedEvent struct {
	GuildID  string
	UserID   string
	WinnerID string
}

func (e WinMissedEvent) Type() EventType {
	return EventTypeWinMissed
}

// DisputeResolvedEvent fires when a dispute reaches a verdict, by vote or
// by forfeit.
type DisputeResolvedEvent struct {
	GuildID     string
	ClaimantID  string
	DefendantID string
	Verdict     string
	ByTimeout   bool
}

func (e DisputeResolvedEvent) Type() EventType {
	return EventTypeDisputeResolved
}

// CooldownDecayedEvent fires each time a scheduled decrement reduces a
// user's cooldown.
type CooldownDecayedEvent struct {
	GuildID string
	UserID  string
	// Remaining is the cooldown nights left after this decrement
	Remaining int
}

func (e CooldownDecayedEvent) Type() EventType {
	return EventTypeCooldownDecayed
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking the caller
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}
