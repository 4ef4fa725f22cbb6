package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string `env:"DISCORD_TOKEN"`

	// Ledger storage
	StorePath string `env:"ZEROZERO_STORE_PATH" envDefault:"settings/zerozero.json"`

	// Admin allow-list (Discord user IDs)
	AdminUserIDs []string `env:"ADMIN_USER_IDS" envSeparator:","`

	// Debug bypasses. Both default off; the midnight gate and the
	// self-challenge check are live in production.
	BypassTimeGate     bool `env:"BYPASS_TIME_GATE"`
	AllowSelfChallenge bool `env:"ALLOW_SELF_CHALLENGE"`

	// Timers
	WinReopenDelay        time.Duration `env:"WIN_REOPEN_DELAY" envDefault:"6m"`
	ClaimTimeout          time.Duration `env:"CLAIM_TIMEOUT" envDefault:"5m"`
	ForfeitTimeout        time.Duration `env:"FORFEIT_TIMEOUT" envDefault:"5m"`
	VotePeriod            time.Duration `env:"VOTE_PERIOD" envDefault:"60s"`
	CooldownNightInterval time.Duration `env:"COOLDOWN_NIGHT_INTERVAL" envDefault:"24h"`

	// Environment: "development" or "production"
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if config.Environment != "test" {
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
	}

	return config, nil
}

// IsAdmin reports whether a Discord user ID is on the admin allow-list
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
