package bot

import (
	"github.com/bwmarrin/discordgo"
)

// Feature is a compile-time registered bot capability. Each feature exposes
// a name, a version, and the slash commands it owns; the optional handler
// interfaces below opt a feature into the event streams it consumes.
type Feature interface {
	Name() string
	Version() string

	// ApplicationCommands returns the slash commands this feature registers
	ApplicationCommands() []*discordgo.ApplicationCommand
}

// CommandHandler handles slash command invocations for a feature's commands
type CommandHandler interface {
	HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// ComponentHandler handles button presses. Returns true when the custom ID
// belonged to this feature.
type ComponentHandler interface {
	HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) bool
}

// ModalHandler handles modal submissions. Returns true when the custom ID
// belonged to this feature.
type ModalHandler interface {
	HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) bool
}

// MessageHandler handles plain channel messages
type MessageHandler interface {
	HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate)
}

// Registry holds the registered features in registration order
type Registry struct {
	features  []Feature
	byCommand map[string]Feature
}

// NewRegistry creates an empty feature registry
func NewRegistry() *Registry {
	return &Registry{
		byCommand: make(map[string]Feature),
	}
}

// Register adds a feature and indexes its commands
func (r *Registry) Register(f Feature) {
	r.features = append(r.features, f)
	for _, cmd := range f.ApplicationCommands() {
		r.byCommand[cmd.Name] = f
	}
}

// ByCommand returns the feature owning a slash command name
func (r *Registry) ByCommand(name string) (Feature, bool) {
	f, ok := r.byCommand[name]
	return f, ok
}

// All returns the registered features in registration order
func (r *Registry) All() []Feature {
	return r.features
}

// Commands returns every slash command across all features
func (r *Registry) Commands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, f := range r.features {
		commands = append(commands, f.ApplicationCommands()...)
	}
	return commands
}
