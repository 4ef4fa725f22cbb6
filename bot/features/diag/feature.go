// Package diag provides the ping and debug diagnostic commands.
package diag

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"querty/bot/common"
)

// historySize caps how many log lines the in-memory history keeps
const historySize = 500

// debugWindow is how many history lines /debug shows by default
const debugWindow = 10

// History is a logrus hook that keeps recent log lines in memory so admins
// can inspect them over Discord.
type History struct {
	mu    sync.Mutex
	lines []string
}

func (h *History) Levels() []log.Level { return log.AllLevels }

func (h *History) Fire(entry *log.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines = append(h.lines, strings.TrimRight(line, "\n"))
	if len(h.lines) > historySize {
		h.lines = h.lines[len(h.lines)-historySize:]
	}
	return nil
}

// Snapshot returns a copy of the retained log lines
func (h *History) Snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines...)
}

// Feature answers /ping with the gateway latency and serves the admin-only
// /debug log console.
type Feature struct {
	isAdmin func(userID string) bool
	history *History
}

// NewFeature creates the diag feature and installs its log history hook
func NewFeature(isAdmin func(userID string) bool) *Feature {
	f := &Feature{
		isAdmin: isAdmin,
		history: &History{},
	}
	log.AddHook(f.history)
	return f
}

func (f *Feature) Name() string { return "Diag" }

func (f *Feature) Version() string { return "1.0" }

// ApplicationCommands returns the slash commands this feature registers
func (f *Feature) ApplicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check whether the bot is alive",
		},
		{
			Name:        "debug",
			Description: "(Admin) Show recent log lines",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "start",
					Description: "First line number to show",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "end",
					Description: "Last line number to show",
					Required:    false,
				},
			},
		},
	}
}

// HandleCommand routes this feature's slash commands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "ping":
		f.handlePing(s, i)
	case "debug":
		f.handleDebug(s, i)
	}
}

func (f *Feature) handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	embed := common.NewEmbed(common.ColorInteract, ":wave: Hello!",
		fmt.Sprintf(":globe_with_meridians: Discord API Latency: **%d**ms", s.HeartbeatLatency().Milliseconds()))
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.Errorf("Error responding to ping command: %v", err)
	}
}

func (f *Feature) handleDebug(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !f.isAdmin(i.Member.User.ID) {
		common.RespondWithError(s, i, "You are not authorised to receive diagnostic information.")
		return
	}

	lines := f.history.Snapshot()
	end := len(lines)
	start := max(end-debugWindow, 0)
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "start":
			start = int(opt.IntValue())
		case "end":
			end = int(opt.IntValue())
		}
	}
	if start < 0 || end > len(lines) || end <= start {
		common.RespondWithError(s, i, "Ending line number must be greater than starting line number.")
		return
	}

	output := "```" + strings.Join(lines[start:end], "\n") + "```"
	// Stay under the embed description limit
	if len(output) > 4000 {
		output = "```..." + output[len(output)-3990:]
	}

	embed := common.NewEmbed(common.ColorInteract, fmt.Sprintf("Debug Console: Lines %d-%d", start, end), output)
	if err := common.RespondWithEmbed(s, i, embed, nil, true); err != nil {
		log.Errorf("Error responding to debug command: %v", err)
	}
}
