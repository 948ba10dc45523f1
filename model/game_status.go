package model

type GameStatus struct {
	Day             int
	DivineResult    *Judge
	Guard           *Guard
	WitchAction     *WitchAction
	ExecutedAgent   *Agent
	AttackedAgent   *Agent
	PoisonedAgent   *Agent
	Votes           []Vote
	AttackVotes     []Vote
	Talks           []Talk
	Whispers        []Talk
	Deaths          []Agent
	StatusMap       map[Agent]Status
	RemainCountMap  *map[Agent]int
	RemainSkipMap   *map[Agent]int
	WitchHealUsed   bool
	WitchPoisonUsed bool
}

func NewInitializeGameStatus(agents []*Agent) GameStatus {
	status := GameStatus{
		Day:         0,
		Votes:       []Vote{},
		AttackVotes: []Vote{},
		Talks:       []Talk{},
		Whispers:    []Talk{},
		Deaths:      []Agent{},
		StatusMap:   make(map[Agent]Status),
	}
	for _, agent := range agents {
		status.StatusMap[*agent] = S_ALIVE
	}
	return status
}

func (g GameStatus) NextDay() GameStatus {
	status := GameStatus{
		Day:             g.Day + 1,
		Votes:           []Vote{},
		AttackVotes:     []Vote{},
		Talks:           []Talk{},
		Whispers:        []Talk{},
		Deaths:          []Agent{},
		StatusMap:       make(map[Agent]Status),
		WitchHealUsed:   g.WitchHealUsed,
		WitchPoisonUsed: g.WitchPoisonUsed,
	}
	for agent, s := range g.StatusMap {
		status.StatusMap[agent] = s
	}
	return status
}

func (g *GameStatus) Kill(agent Agent) bool {
	if g.StatusMap[agent] != S_ALIVE {
		return false
	}
	g.StatusMap[agent] = S_DEAD
	g.Deaths = append(g.Deaths, agent)
	return true
}

func (g GameStatus) LastVoteRound(votes []Vote) []Vote {
	if len(votes) == 0 {
		return votes
	}
	last := votes[len(votes)-1].Round
	result := make([]Vote, 0)
	for _, vote := range votes {
		if vote.Round == last {
			result = append(result, vote)
		}
	}
	return result
}
