package service

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aiwolfdial/turandot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testAgents() []*model.Agent {
	return []*model.Agent{
		{Idx: 1, Name: "Alice", Role: model.R_WEREWOLF},
		{Idx: 2, Name: "Bob", Role: model.R_SEER},
		{Idx: 3, Name: "Carol", Role: model.R_VILLAGER},
	}
}

func TestGameLogger(t *testing.T) {
	var config model.Config
	config.GameLogger.OutputDir = t.TempDir()
	config.GameLogger.Filename = "game-{game_id}"
	logger := NewGameLogger(config)
	agents := testAgents()

	logger.TrackStartGame("g1", agents)
	logger.AppendEvent(model.Event{GameID: "g1", Day: 1, Kind: model.E_TALK, From: agents[0], Text: "hello\nthere"})
	logger.AppendEvent(model.Event{GameID: "other", Day: 1, Kind: model.E_TALK, From: agents[0], Text: "ignored"})
	logger.AppendEvent(model.Event{GameID: "g1", Day: 1, Kind: model.E_VOTE, From: agents[1], To: agents[0]})
	statusMap := map[model.Agent]model.Status{*agents[0]: model.S_DEAD, *agents[1]: model.S_ALIVE, *agents[2]: model.S_ALIVE}
	logger.TrackEndGame("g1", agents, statusMap, model.T_VILLAGER)

	data, err := os.ReadFile(filepath.Join(config.GameLogger.OutputDir, "game-g1.log"))
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	assert.Equal(t, []string{
		"0,seat,1,WEREWOLF,Alice",
		"0,seat,2,SEER,Bob",
		"0,seat,3,VILLAGER,Carol",
		"1,talk,1,-1,hello there",
		"1,vote,2,1,",
		"end,status,1,WEREWOLF,DEAD,Alice",
		"end,status,2,SEER,ALIVE,Bob",
		"end,status,3,VILLAGER,ALIVE,Carol",
		"end,result,2,0,VILLAGER",
	}, lines)
}

func TestJSONLogger(t *testing.T) {
	var config model.Config
	config.JSONLogger.OutputDir = t.TempDir()
	logger := NewJSONLogger(config)
	agents := testAgents()

	logger.TrackStartGame("g2", agents)
	logger.TrackStartRequest("g2", *agents[1], model.R_DIVINE, "Choose someone.", []string{"Alice", "Carol"})
	logger.TrackEndRequest("g2", *agents[1], "Alice", nil)
	logger.TrackStartRequest("g2", *agents[2], model.R_TALK, "Speak.", nil)
	logger.TrackEndRequest("g2", *agents[2], "", errors.New("timeout"))
	logger.TrackEndGame("g2", model.T_WEREWOLF)

	data, err := os.ReadFile(filepath.Join(config.JSONLogger.OutputDir, "g2.json"))
	require.NoError(t, err)
	json := string(data)
	assert.Equal(t, "g2", gjson.Get(json, "game_id").String())
	assert.Equal(t, "WEREWOLF", gjson.Get(json, "win_side").String())
	assert.Equal(t, int64(3), gjson.Get(json, "agents.#").Int())
	assert.Equal(t, "DIVINE", gjson.Get(json, "entries.0.request.request").String())
	assert.Equal(t, "Carol", gjson.Get(json, "entries.0.request.candidates.1").String())
	assert.Equal(t, "Alice", gjson.Get(json, "entries.0.response").String())
	assert.Equal(t, "timeout", gjson.Get(json, "entries.1.error").String())
	assert.False(t, gjson.Get(json, "entries.1.response").Exists())
}

func TestExpandFilename(t *testing.T) {
	assert.Equal(t, "abc", expandFilename("", "abc"))
	assert.Equal(t, "log_abc", expandFilename("log_{game_id}", "abc"))
	assert.NotContains(t, expandFilename("{timestamp}_{game_id}", "abc"), "{timestamp}")
}
