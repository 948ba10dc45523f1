package core

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aiwolfdial/turandot/llm"
	"github.com/aiwolfdial/turandot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firstCandidateResponder struct{}

func (firstCandidateResponder) Respond(ctx context.Context, agent model.Agent, request model.Request, messages []model.Message, candidates []string) (string, error) {
	if request.IsTalk() || len(candidates) == 0 {
		return model.T_OVER, nil
	}
	return candidates[0], nil
}

type namingDecider struct {
	names []string
}

func (d *namingDecider) Decide(ctx context.Context, messages []model.Message, tool llm.ToolSpec, temperature float64) (map[string]any, error) {
	name := d.names[0]
	d.names = d.names[1:]
	return map[string]any{"name": name, "personality": "Curious."}, nil
}

func runnerConfig(t *testing.T) model.Config {
	t.Helper()
	dir := t.TempDir()
	config := model.DefaultConfig()
	config.Game.AgentCount = 5
	config.Game.Count = 2
	config.Game.MaxDay = 3
	config.Store.Enable = true
	config.Store.Path = filepath.Join(dir, "turandot.db")
	config.RealtimeBroadcaster.Enable = true
	config.RealtimeBroadcaster.OutputDir = filepath.Join(dir, "realtime")
	config.GameLogger.Enable = true
	config.GameLogger.OutputDir = filepath.Join(dir, "log")
	return config
}

func TestRunnerPlaysConfiguredGames(t *testing.T) {
	runner, err := NewRunner(runnerConfig(t), firstCandidateResponder{})
	require.NoError(t, err)
	defer runner.Close()

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 2)

	games, err := runner.Store().ListGames(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)
	for _, game := range games {
		assert.NotNil(t, game.FinishedAt)
		assert.Len(t, game.Agents, 5)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	runner, err := NewRunner(runnerConfig(t), firstCandidateResponder{})
	require.NoError(t, err)
	defer runner.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunnerRejectsBadRoles(t *testing.T) {
	config := model.DefaultConfig()
	config.Game.AgentCount = 2
	_, err := NewRunner(config, firstCandidateResponder{})
	assert.Error(t, err)
}

func TestRunnerProfiles(t *testing.T) {
	config := model.DefaultConfig()
	config.Game.AgentCount = 5
	config.Profile.Personas = []model.Profile{{Name: "Lin"}, {Name: "Mara"}}
	runner, err := NewRunner(config, firstCandidateResponder{})
	require.NoError(t, err)

	profiles := runner.resolveProfiles(context.Background())
	require.Len(t, profiles, 5)
	assert.Equal(t, "Lin", profiles[0].Name)

	config.Profile.Dynamic = true
	runner, err = NewRunner(config, firstCandidateResponder{})
	require.NoError(t, err)
	runner.SetProfileDecider(&namingDecider{names: []string{"Ada", "Ben", "Cid", "Dot", "Eli"}})
	profiles = runner.resolveProfiles(context.Background())
	require.Len(t, profiles, 5)
	assert.Equal(t, "Ada", profiles[0].Name)
	assert.Equal(t, "Curious.", profiles[4].Personality)
}
