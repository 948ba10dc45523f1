package logic

import (
	"context"
	"testing"

	"github.com/aiwolfdial/turandot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeakingOrderFollowsLastDeath(t *testing.T) {
	g := newTestGame(t, newScriptedResponder(), nil)
	g.getCurrentGameStatus().Kill(*agentByName(g, "Carol"))

	order := g.speakingOrder(g.getAliveAgents())
	names := make([]string, 0, len(order))
	for _, agent := range order {
		names = append(names, agent.Name)
	}
	assert.Equal(t, []string{"Dave", "Eve", "Frank", "Alice", "Bob"}, names)
}

func TestSpeakingOrderWithoutDeathIsCircular(t *testing.T) {
	g := newTestGame(t, newScriptedResponder(), nil)
	order := g.speakingOrder(g.getAliveAgents())
	require.Len(t, order, 6)
	for i := 1; i < len(order); i++ {
		assert.Equal(t, order[i-1].Idx%6+1, order[i].Idx)
	}
}

func TestTalkRounds(t *testing.T) {
	responder := newScriptedResponder()
	responder.plan("Alice", model.R_TALK, "Hello everyone", "Over")
	responder.plan("Bob", model.R_TALK, "Skip")
	g := newTestGame(t, responder, nil)

	g.doTalk(context.Background())

	talks := g.getCurrentGameStatus().Talks
	assert.Len(t, talks, 8)
	texts := map[string][]string{}
	for _, talk := range talks {
		texts[talk.Agent.Name] = append(texts[talk.Agent.Name], talk.Text)
	}
	assert.Equal(t, []string{"Hello everyone", model.T_OVER}, texts["Alice"])
	assert.Equal(t, []string{model.T_SKIP, model.T_OVER}, texts["Bob"])
	assert.Contains(t, transcriptText(g, "Eve"), "Alice: Hello everyone")
	assert.Nil(t, g.getCurrentGameStatus().RemainCountMap)
}

func TestTalkTruncatesLongText(t *testing.T) {
	responder := newScriptedResponder()
	responder.plan("Alice", model.R_TALK, "こんにちは、みなさん")
	g := newTestGame(t, responder, func(s *model.Setting) {
		limit := 5
		s.Talk.MaxLength.PerTalk = &limit
		s.Talk.MaxCount.PerDay = 1
	})

	g.doTalk(context.Background())

	for _, talk := range g.getCurrentGameStatus().Talks {
		if talk.Agent.Name == "Alice" {
			assert.Equal(t, "こんにちは", talk.Text)
		}
	}
}

func TestWhisperIsPrivate(t *testing.T) {
	responder := newScriptedResponder()
	responder.plan("Alice", model.R_WHISPER, "Let's take Bob tonight.")
	g := newTestGame(t, responder, nil)
	g.phase = model.P_NIGHT

	g.doWhisper(context.Background())

	assert.NotEmpty(t, g.getCurrentGameStatus().Whispers)
	assert.Contains(t, transcriptText(g, "Frank"), "(whisper) Alice: Let's take Bob tonight.")
	assert.NotContains(t, transcriptText(g, "Bob"), "take Bob")
	assert.False(t, responder.called("Bob/WHISPER"))
}

func TestWhisperNeedsTwoWolves(t *testing.T) {
	responder := newScriptedResponder()
	g := newTestGame(t, responder, nil)
	g.getCurrentGameStatus().Kill(*agentByName(g, "Frank"))

	g.doWhisper(context.Background())
	assert.False(t, responder.called("Alice/WHISPER"))
}

func TestNormalizeTalk(t *testing.T) {
	assert.Equal(t, model.T_SKIP, normalizeTalk("  "))
	assert.Equal(t, model.T_SKIP, normalizeTalk("skip."))
	assert.Equal(t, model.T_OVER, normalizeTalk("\"Over\""))
	assert.Equal(t, "I trust Bob.", normalizeTalk(" I trust Bob. "))
	assert.Equal(t, "ForceSkip", normalizeTalk("ForceSkip"))
}

func TestTalkSkipLimitBecomesOver(t *testing.T) {
	responder := newScriptedResponder()
	responder.plan("Bob", model.R_TALK, "Skip", "Skip", "Late words")
	responder.plan("Alice", model.R_TALK, "ForceSkip", "ForceSkip", "Over")
	g := newTestGame(t, responder, func(s *model.Setting) {
		s.Talk.MaxCount.PerAgent = 3
		s.Talk.MaxCount.PerDay = 3
		s.Talk.MaxSkip = 1
	})

	g.doTalk(context.Background())

	texts := map[string][]string{}
	for _, talk := range g.getCurrentGameStatus().Talks {
		texts[talk.Agent.Name] = append(texts[talk.Agent.Name], talk.Text)
	}
	assert.Equal(t, []string{model.T_SKIP, model.T_OVER}, texts["Bob"])
	assert.Equal(t, []string{"Late words"}, responder.plans["Bob/TALK"])
	assert.Equal(t, []string{"ForceSkip", "ForceSkip", model.T_OVER}, texts["Alice"])
	assert.Zero(t, g.errorCounts[*agentByName(g, "Alice")])
}

func TestTalkFailedRequestSkips(t *testing.T) {
	responder := newScriptedResponder()
	responder.fail = true
	g := newTestGame(t, responder, func(s *model.Setting) {
		s.Talk.MaxCount.PerAgent = 3
		s.Talk.MaxCount.PerDay = 3
		s.Talk.MaxSkip = 1
	})

	g.doTalk(context.Background())

	texts := map[string][]string{}
	for _, talk := range g.getCurrentGameStatus().Talks {
		texts[talk.Agent.Name] = append(texts[talk.Agent.Name], talk.Text)
	}
	assert.Equal(t, []string{model.T_SKIP, model.T_SKIP, model.T_SKIP}, texts["Alice"])
	assert.Equal(t, 3, g.errorCounts[*agentByName(g, "Alice")])
}
