package logic

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aiwolfdial/turandot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedResponder replays queued answers per agent and request. Without a
// queued answer talk requests end the round and decisions take the first
// candidate.
type scriptedResponder struct {
	mu         sync.Mutex
	plans      map[string][]string
	calls      []string
	candidates map[string][]string
	prompts    map[string]string
	fail       bool
}

func newScriptedResponder() *scriptedResponder {
	return &scriptedResponder{
		plans:      make(map[string][]string),
		candidates: make(map[string][]string),
		prompts:    make(map[string]string),
	}
}

func key(agent string, request model.Request) string {
	return agent + "/" + request.String()
}

func (s *scriptedResponder) plan(agent string, request model.Request, answers ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[key(agent, request)] = append(s.plans[key(agent, request)], answers...)
}

func (s *scriptedResponder) Respond(ctx context.Context, agent model.Agent, request model.Request, messages []model.Message, candidates []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(agent.Name, request)
	s.calls = append(s.calls, k)
	s.candidates[k] = candidates
	if len(messages) > 0 {
		s.prompts[k] = messages[len(messages)-1].Content
	}
	if s.fail {
		return "", errors.New("endpoint unavailable")
	}
	if queue := s.plans[k]; len(queue) > 0 {
		s.plans[k] = queue[1:]
		return queue[0], nil
	}
	if request.IsTalk() {
		return model.T_OVER, nil
	}
	if len(candidates) > 0 {
		return candidates[0], nil
	}
	return "", nil
}

func (s *scriptedResponder) called(k string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == k {
			return true
		}
	}
	return false
}

type recordingNarrator struct {
	events []model.Event
}

func (r *recordingNarrator) Narrate(ctx context.Context, event model.Event) {
	r.events = append(r.events, event)
}

func testConfig() *model.Config {
	config := model.DefaultConfig()
	config.Game.AgentCount = 6
	config.Game.MaxDay = 5
	config.Game.Talk.MaxCount.PerAgent = 2
	config.Game.Talk.MaxCount.PerDay = 2
	return &config
}

func testSetting(config *model.Config) *model.Setting {
	setting := &model.Setting{
		AgentCount: 6,
		RoleNumMap: map[model.Role]int{
			model.R_WEREWOLF:  2,
			model.R_SEER:      1,
			model.R_WITCH:     1,
			model.R_BODYGUARD: 1,
			model.R_VILLAGER:  1,
		},
		MaxDay:    config.Game.MaxDay,
		LastWords: true,
	}
	setting.Talk.MaxCount.PerAgent = 2
	setting.Talk.MaxCount.PerDay = 2
	setting.Talk.MaxSkip = 1
	setting.Whisper = setting.Talk
	setting.Vote.MaxCount = 2
	setting.AttackVote.MaxCount = 2
	setting.Guard.ForbidConsecutive = true
	setting.Witch.OneActionPerNight = true
	return setting
}

func testAgents() []*model.Agent {
	return []*model.Agent{
		{Idx: 1, Name: "Alice", Role: model.R_WEREWOLF},
		{Idx: 2, Name: "Bob", Role: model.R_SEER},
		{Idx: 3, Name: "Carol", Role: model.R_WITCH},
		{Idx: 4, Name: "Dave", Role: model.R_BODYGUARD},
		{Idx: 5, Name: "Eve", Role: model.R_VILLAGER},
		{Idx: 6, Name: "Frank", Role: model.R_WEREWOLF},
	}
}

func newTestGame(t *testing.T, responder Responder, modify func(*model.Setting)) *Game {
	t.Helper()
	config := testConfig()
	setting := testSetting(config)
	if modify != nil {
		modify(setting)
	}
	g, err := NewGameWithAgents(config, setting, testAgents(), responder)
	require.NoError(t, err)
	return g
}

func agentByName(g *Game, name string) *model.Agent {
	for _, agent := range g.Agents {
		if agent.Name == name {
			return agent
		}
	}
	return nil
}

func transcriptText(g *Game, name string) string {
	var builder strings.Builder
	for _, message := range g.Transcript(*agentByName(g, name)) {
		builder.WriteString(message.Content)
		builder.WriteString("\n")
	}
	return builder.String()
}

func TestNewGame(t *testing.T) {
	config := testConfig()
	setting := testSetting(config)
	profiles := []model.Profile{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}, {Name: "E"}, {Name: "F"}}

	g, err := NewGame(config, setting, profiles, newScriptedResponder())
	require.NoError(t, err)
	assert.Len(t, g.Agents, 6)
	assert.NotEmpty(t, g.ID)

	_, err = NewGame(config, setting, profiles[:3], newScriptedResponder())
	assert.Error(t, err)
}

func TestSystemPromptNamesTeammates(t *testing.T) {
	g := newTestGame(t, newScriptedResponder(), nil)
	alice := g.Transcript(*agentByName(g, "Alice"))
	require.NotEmpty(t, alice)
	assert.Equal(t, model.MessageSystem, alice[0].Role)
	assert.Contains(t, alice[0].Content, "Your fellow werewolves are Frank")
	assert.NotContains(t, g.Transcript(*agentByName(g, "Bob"))[0].Content, "fellow werewolves")
}

func TestStartFinishesGame(t *testing.T) {
	narrator := &recordingNarrator{}
	g := newTestGame(t, newScriptedResponder(), nil)
	g.SetNarrator(narrator)

	g.Start(context.Background())
	require.NotEmpty(t, narrator.events)
	assert.Equal(t, model.E_START, narrator.events[0].Kind)
	assert.Equal(t, model.E_RESULT, narrator.events[len(narrator.events)-1].Kind)
	for i, event := range narrator.events {
		assert.Equal(t, i+1, event.Idx)
		assert.Equal(t, g.ID, event.GameID)
	}
	assert.LessOrEqual(t, g.currentDay, g.setting.MaxDay)
}

func TestStartStopsOnErrors(t *testing.T) {
	responder := newScriptedResponder()
	responder.fail = true
	g := newTestGame(t, responder, nil)

	winSide := g.Start(context.Background())
	assert.Equal(t, model.T_NONE, winSide)
	assert.Equal(t, 1, g.currentDay)
}

func TestStartStopsOnCancel(t *testing.T) {
	narrator := &recordingNarrator{}
	g := newTestGame(t, newScriptedResponder(), nil)
	g.SetNarrator(narrator)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	winSide := g.Start(ctx)
	assert.Equal(t, model.T_NONE, winSide)
	require.Len(t, narrator.events, 2)
	assert.Equal(t, model.E_RESULT, narrator.events[1].Kind)
}

func TestAnnounceDeathsSkipsExecuted(t *testing.T) {
	narrator := &recordingNarrator{}
	g := newTestGame(t, newScriptedResponder(), nil)
	g.SetNarrator(narrator)

	status := g.getCurrentGameStatus()
	eve, carol := agentByName(g, "Eve"), agentByName(g, "Carol")
	status.Kill(*eve)
	status.ExecutedAgent = eve
	status.Kill(*carol)
	next := status.NextDay()
	g.gameStatuses[1] = &next
	g.currentDay = 1

	g.announceDeaths(context.Background())
	require.Len(t, narrator.events, 1)
	assert.Equal(t, model.E_DEATH, narrator.events[0].Kind)
	assert.Equal(t, "Carol", narrator.events[0].To.Name)
}

func TestAnnounceDeathsQuietNight(t *testing.T) {
	narrator := &recordingNarrator{}
	g := newTestGame(t, newScriptedResponder(), nil)
	g.SetNarrator(narrator)

	status := g.getCurrentGameStatus()
	next := status.NextDay()
	g.gameStatuses[1] = &next
	g.currentDay = 1

	g.announceDeaths(context.Background())
	require.Len(t, narrator.events, 1)
	assert.Equal(t, model.E_DEATH, narrator.events[0].Kind)
	assert.Nil(t, narrator.events[0].To)
	assert.Contains(t, transcriptText(g, "Eve"), "Nobody died last night.")
	assert.NotContains(t, transcriptText(g, "Eve"), "found dead")
}
