package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	config, err := LoadFromPath("../config/default.yml")
	require.NoError(t, err)
	assert.Equal(t, 7, config.Game.AgentCount)
	assert.Equal(t, 2*time.Minute, config.LLM.Timeout)
	assert.Equal(t, 280, config.Game.Talk.MaxLength.PerTalk)
	assert.Len(t, config.Profile.Personas, 7)

	setting, err := NewSetting(*config)
	require.NoError(t, err)
	require.NotNil(t, setting.Talk.MaxLength.PerTalk)
	assert.Equal(t, 280, *setting.Talk.MaxLength.PerTalk)
	assert.Equal(t, 2, setting.RoleNumMap[R_WEREWOLF])
}

func TestLoadDebugConfigOverridesRoles(t *testing.T) {
	config, err := LoadFromPath("../config/debug.yml")
	require.NoError(t, err)
	roles, err := RolesFromConfig(*config)
	require.NoError(t, err)
	assert.Equal(t, map[Role]int{R_WEREWOLF: 1, R_SEER: 1, R_BODYGUARD: 1, R_VILLAGER: 2}, roles)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  agent_count: 5\n"), 0644))
	config, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 5, config.Game.AgentCount)
	assert.Equal(t, 3, config.LLM.MaxAttempts)
	assert.Equal(t, "./data/turandot.db", config.Store.Path)
}

func TestRolesFromConfig(t *testing.T) {
	config := DefaultConfig()
	config.Game.AgentCount = 5
	roles, err := RolesFromConfig(config)
	require.NoError(t, err)
	assert.Equal(t, 1, roles[R_POSSESSED])

	config.Game.AgentCount = 4
	_, err = RolesFromConfig(config)
	assert.Error(t, err)

	config.Game.Roles = map[int]map[string]int{4: {"WEREWOLF": 1, "VILLAGER": 2}}
	_, err = RolesFromConfig(config)
	assert.Error(t, err)

	config.Game.Roles = map[int]map[string]int{4: {"WEREWOLF": 1, "JESTER": 3}}
	_, err = RolesFromConfig(config)
	assert.Error(t, err)

	config.Game.Roles = map[int]map[string]int{4: {"WEREWOLF": 1, "WITCH": 1, "VILLAGER": 2}}
	roles, err = RolesFromConfig(config)
	require.NoError(t, err)
	assert.Equal(t, 1, roles[R_WITCH])
}

func TestNewSettingClampsCounts(t *testing.T) {
	config := DefaultConfig()
	config.Game.Vote.MaxCount = 0
	config.Game.Attack.MaxCount = -1
	setting, err := NewSetting(config)
	require.NoError(t, err)
	assert.Equal(t, 1, setting.Vote.MaxCount)
	assert.Equal(t, 1, setting.AttackVote.MaxCount)
	assert.Nil(t, setting.Talk.MaxLength.PerTalk)
}
