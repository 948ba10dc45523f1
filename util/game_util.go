package util

import (
	"math/rand/v2"
	"slices"
	"sort"
	"unicode/utf8"

	"github.com/aiwolfdial/turandot/model"
	"golang.org/x/exp/constraints"
)

func CountAliveTeams(statusMap map[model.Agent]model.Status) (int, int) {
	var humans, werewolves int
	for agent, status := range statusMap {
		if status == model.S_ALIVE {
			switch agent.Role.Species {
			case model.S_HUMAN:
				humans++
			case model.S_WEREWOLF:
				werewolves++
			}
		}
	}
	return humans, werewolves
}

func CalcWinSideTeam(statusMap map[model.Agent]model.Status) model.Team {
	humans, werewolves := CountAliveTeams(statusMap)
	if werewolves == 0 {
		return model.T_VILLAGER
	}
	if humans <= werewolves {
		return model.T_WEREWOLF
	}
	return model.T_NONE
}

// CreateAgents seats one agent per profile and deals the role multiset in a
// shuffled order. Missing profiles get generated names.
func CreateAgents(profiles []model.Profile, roles map[model.Role]int) []*model.Agent {
	deck := RoleDeck(roles)
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	shuffled := slices.Clone(profiles)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	seats := make([]model.Profile, len(deck))
	copy(seats, shuffled)

	agents := make([]*model.Agent, 0, len(deck))
	for i, role := range deck {
		agents = append(agents, model.NewAgent(i+1, role, seats[i]))
	}
	return agents
}

func RoleDeck(roles map[model.Role]int) []model.Role {
	names := make([]string, 0, len(roles))
	for role := range roles {
		names = append(names, role.Name)
	}
	sort.Strings(names)
	deck := make([]model.Role, 0)
	for _, name := range names {
		role := model.RoleFromString(name)
		for range roles[role] {
			deck = append(deck, role)
		}
	}
	return deck
}

func CountVotes(votes []model.Vote, condition func(model.Vote) bool) map[model.Agent]int {
	counter := make(map[model.Agent]int)
	for _, vote := range votes {
		if condition(vote) {
			counter[vote.Target]++
		}
	}
	return counter
}

func GetCandidates(votes []model.Vote, condition func(model.Vote) bool) []model.Agent {
	candidates := GetMaxCountCandidates(CountVotes(votes, condition))
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Idx < candidates[j].Idx })
	return candidates
}

func GetMaxCountCandidates[K comparable, N constraints.Integer | constraints.Float](counter map[K]N) []K {
	var highest N
	for _, count := range counter {
		if count > highest {
			highest = count
		}
	}
	candidates := make([]K, 0)
	for key, count := range counter {
		if count == highest && count > 0 {
			candidates = append(candidates, key)
		}
	}
	return candidates
}

// IsUnanimous reports whether every voter cast a vote and all votes share one
// target.
func IsUnanimous(votes []model.Vote, voters int) (model.Agent, bool) {
	if voters == 0 || len(votes) != voters {
		return model.Agent{}, false
	}
	target := votes[0].Target
	for _, vote := range votes[1:] {
		if vote.Target != target {
			return model.Agent{}, false
		}
	}
	return target, true
}

// SeatingOrder returns the alive agents in seat order, starting from the first
// alive seat after anchor and wrapping around the table.
func SeatingOrder(agents []*model.Agent, statusMap map[model.Agent]model.Status, anchor int) []*model.Agent {
	seats := slices.Clone(agents)
	sort.Slice(seats, func(i, j int) bool { return seats[i].Idx < seats[j].Idx })
	start := 0
	for i, agent := range seats {
		if agent.Idx > anchor {
			start = i
			break
		}
	}
	ordered := make([]*model.Agent, 0, len(seats))
	for i := range seats {
		agent := seats[(start+i)%len(seats)]
		if statusMap[*agent] == model.S_ALIVE {
			ordered = append(ordered, agent)
		}
	}
	return ordered
}

func RandomSeat(agents []*model.Agent) int {
	if len(agents) == 0 {
		return 0
	}
	return agents[rand.IntN(len(agents))].Idx
}

func TrimLength(text string, length int) string {
	if length < 0 || utf8.RuneCountInString(text) <= length {
		return text
	}
	return string([]rune(text)[:length])
}
