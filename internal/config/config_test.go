package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 4, cfg.Game.MaxTeams)
	assert.Equal(t, 5, cfg.Game.DefaultRounds)
	assert.Equal(t, 45*time.Second, cfg.Game.TurnTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Game.IdleRoomTimeout)
	assert.Equal(t, []string{"easy", "medium", "hard"}, cfg.Game.Difficulties)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_TEAMS", "3")
	t.Setenv("TURN_TIMEOUT", "20s")
	t.Setenv("DIFFICULTIES", "hard, expert ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 3, cfg.Game.MaxTeams)
	assert.Equal(t, 20*time.Second, cfg.Game.TurnTimeout)
	assert.Equal(t, []string{"hard", "expert"}, cfg.Game.Difficulties)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("MAX_TEAMS", "1")
	_, err := Load()
	assert.Error(t, err, "a single-team game is not playable")
}

func TestLoadRejectsUnparseableDuration(t *testing.T) {
	t.Setenv("TURN_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}
