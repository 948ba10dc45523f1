package prompt

import (
	"testing"

	"github.com/aiwolfdial/turandot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = model.Agent{Idx: 1, Name: "Alice", Personality: "Sharp and impatient.", Role: model.R_WEREWOLF}
	bob   = model.Agent{Idx: 2, Name: "Bob", Role: model.R_SEER}
	carol = model.Agent{Idx: 3, Name: "Carol", Role: model.R_WITCH}
)

func info(agent model.Agent, status *model.GameStatus) model.Info {
	return model.NewInfo("game", &agent, status, []*model.GameStatus{status})
}

func newStatus() *model.GameStatus {
	status := model.NewInitializeGameStatus([]*model.Agent{&alice, &bob, &carol})
	status.Day = 2
	return &status
}

func TestSystem(t *testing.T) {
	text, err := System(SystemData{
		Agent:     alice,
		Agents:    []model.Agent{alice, bob, carol},
		Teammates: []model.Agent{{Idx: 4, Name: "Dave", Role: model.R_WEREWOLF}},
		Setting:   model.Setting{RoleNumMap: map[model.Role]int{model.R_WEREWOLF: 2, model.R_SEER: 1, model.R_WITCH: 0}},
	})
	require.NoError(t, err)
	assert.Contains(t, text, "You are Alice, seat 1 in a game of Werewolf played by 3 people: Alice, Bob, Carol.")
	assert.Contains(t, text, "Your personality: Sharp and impatient.")
	assert.Contains(t, text, "Roles in this game: 1 SEER, 2 WEREWOLF.")
	assert.Contains(t, text, "Your fellow werewolves are Dave.")
}

func TestRequestVote(t *testing.T) {
	status := newStatus()
	text, err := Request(model.R_VOTE, RequestData{
		Info:          info(bob, status),
		Candidates:    []string{"Alice", "Carol"},
		Round:         2,
		PreviousVotes: []model.Vote{{Agent: bob, Target: alice}, {Agent: alice, Target: carol}},
	})
	require.NoError(t, err)
	assert.Contains(t, text, "Day 2, execution vote (run-off round 2 between tied agents).")
	assert.Contains(t, text, "Previous round: Bob voted for Alice, Alice voted for Carol.")
	assert.Contains(t, text, "Candidates: Alice, Carol.")
}

func TestRequestAttackShowsPreviousVotes(t *testing.T) {
	status := newStatus()
	text, err := Request(model.R_ATTACK, RequestData{
		Info:          info(alice, status),
		Candidates:    []string{"Bob", "Carol"},
		Round:         2,
		PreviousVotes: []model.Vote{{Agent: alice, Target: bob}, {Agent: model.Agent{Name: "Dave"}, Target: carol}},
	})
	require.NoError(t, err)
	assert.Contains(t, text, "Previous round: Alice chose Bob, Dave chose Carol.")
}

func TestRequestTalk(t *testing.T) {
	status := newStatus()
	status.StatusMap[carol] = model.S_DEAD
	text, err := Request(model.R_TALK, RequestData{Info: info(bob, status), Remain: 2, MaxLength: 80})
	require.NoError(t, err)
	assert.Contains(t, text, "(2 turns left today). Alive: Alice, Bob. Dead: Carol.")
	assert.Contains(t, text, "in at most 80 characters")
}

func TestRequestWitchSave(t *testing.T) {
	status := newStatus()
	status.AttackedAgent = &bob
	text, err := Request(model.R_WITCH_SAVE, RequestData{Info: info(carol, status), Candidates: []string{"Bob", "NOBODY"}, NoTarget: "NOBODY"})
	require.NoError(t, err)
	assert.Contains(t, text, "The werewolves attacked Bob tonight.")
	assert.Contains(t, text, "or NOBODY to keep the potion.")
}

func TestRequestUnknown(t *testing.T) {
	_, err := Request(model.Request{Type: "DANCE"}, RequestData{})
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Bob voted for Alice.", Describe(model.Event{Kind: model.E_VOTE, From: &bob, To: &alice}))
	assert.Equal(t, "Nobody was executed today.", Describe(model.Event{Kind: model.E_EXECUTE}))
	assert.Equal(t, "Nobody died last night.", Describe(model.Event{Kind: model.E_DEATH}))
	assert.Equal(t, "Your divination: Alice is werewolf.", Describe(model.Event{Kind: model.E_DIVINE, From: &bob, To: &alice, Text: "WEREWOLF"}))
	assert.Equal(t, "Night 3 falls. Quiet.", Describe(model.Event{Kind: model.E_STATUS, Phase: model.P_NIGHT, Day: 3, Text: "Quiet."}))
}

func TestProfile(t *testing.T) {
	messages := Profile("", []string{"Alice", "Bob"})
	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].Content, DefaultProfilePrompt)
	assert.Contains(t, messages[1].Content, "These names are already taken: Alice, Bob.")
}
