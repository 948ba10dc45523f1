package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agents() []*Agent {
	return []*Agent{
		{Idx: 1, Name: "Alice", Role: R_WEREWOLF},
		{Idx: 2, Name: "Bob", Role: R_SEER},
		{Idx: 3, Name: "Carol", Role: R_WITCH},
		{Idx: 4, Name: "Dave", Role: R_POSSESSED},
	}
}

func TestGameStatusKillAndNextDay(t *testing.T) {
	list := agents()
	status := NewInitializeGameStatus(list)
	assert.True(t, status.Kill(*list[1]))
	assert.False(t, status.Kill(*list[1]))
	status.WitchHealUsed = true
	status.Votes = append(status.Votes, Vote{Agent: *list[0], Target: *list[2]})

	next := status.NextDay()
	assert.Equal(t, 1, next.Day)
	assert.Equal(t, S_DEAD, next.StatusMap[*list[1]])
	assert.True(t, next.WitchHealUsed)
	assert.Empty(t, next.Votes)
	assert.Empty(t, next.Deaths)

	next.Kill(*list[0])
	assert.Equal(t, S_ALIVE, status.StatusMap[*list[0]])
}

func TestLastVoteRound(t *testing.T) {
	list := agents()
	votes := []Vote{
		{Round: 1, Agent: *list[0], Target: *list[1]},
		{Round: 2, Agent: *list[0], Target: *list[2]},
		{Round: 2, Agent: *list[3], Target: *list[2]},
	}
	last := GameStatus{}.LastVoteRound(votes)
	require.Len(t, last, 2)
	assert.Equal(t, 2, last[0].Round)
}

func TestInfoViews(t *testing.T) {
	list := agents()
	status := NewInitializeGameStatus(list)
	status.Kill(*list[3])
	status.AttackedAgent = list[1]
	status.DivineResult = &Judge{Agent: *list[1], Target: *list[0], Result: S_WEREWOLF}
	history := []*GameStatus{&status}

	witch := NewInfo("g", list[2], &status, history)
	require.NotNil(t, witch.Victim)
	assert.Equal(t, "Bob", witch.Victim.Name)
	assert.True(t, witch.HealAvailable)
	assert.Len(t, witch.AliveAgents(), 3)
	assert.Len(t, witch.DeadAgents(), 1)

	seer := NewInfo("g", list[1], &status, history)
	assert.Nil(t, seer.Victim)
	require.Len(t, seer.DivineResults, 1)
	assert.Empty(t, seer.Teammates())

	wolf := NewInfo("g", list[0], &status, history)
	assert.Empty(t, wolf.DivineResults)
	assert.Empty(t, wolf.Teammates())
	assert.Equal(t, R_WEREWOLF, wolf.RoleMap[*list[0]])
	assert.NotContains(t, wolf.RoleMap, *list[3])
}

func TestTranscriptMergesObservations(t *testing.T) {
	transcript := NewTranscript("system")
	transcript.Observe("Alice: hi")
	transcript.Observe("Bob: hello")
	transcript.Said("Hi all.")
	transcript.Observe("Carol: hey")

	messages := transcript.Messages()
	require.Len(t, messages, 4)
	assert.Equal(t, MessageSystem, messages[0].Role)
	assert.Equal(t, "Alice: hi\nBob: hello", messages[1].Content)
	assert.Equal(t, MessageAssistant, messages[2].Role)
	assert.Len(t, transcript.Messages(), 4)

	messages[1].Content = "changed"
	assert.Equal(t, "Alice: hi\nBob: hello", transcript.Messages()[1].Content)
}

func TestRequestIsTalk(t *testing.T) {
	assert.False(t, R_WITCH_POISON.IsTalk())
	assert.True(t, R_LAST_WORDS.IsTalk())
	assert.True(t, R_WHISPER.IsTalk())
}
