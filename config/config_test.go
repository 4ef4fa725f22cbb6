package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "settings/zerozero.json", cfg.StorePath)
	assert.Equal(t, 6*time.Minute, cfg.WinReopenDelay)
	assert.Equal(t, 5*time.Minute, cfg.ClaimTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ForfeitTimeout)
	assert.Equal(t, time.Minute, cfg.VotePeriod)
	assert.Equal(t, 24*time.Hour, cfg.CooldownNightInterval)
	assert.False(t, cfg.BypassTimeGate)
	assert.False(t, cfg.AllowSelfChallenge)
}

func TestLoad_TokenRequiredOutsideTests(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DISCORD_TOKEN", "")

	_, err := load()
	assert.Error(t, err)
}

func TestLoad_AdminList(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("ADMIN_USER_IDS", "100,200")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, []string{"100", "200"}, cfg.AdminUserIDs)
	assert.True(t, cfg.IsAdmin("100"))
	assert.False(t, cfg.IsAdmin("300"))
}
