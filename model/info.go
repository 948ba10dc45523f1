package model

import (
	"encoding/json"
	"sort"
)

type Info struct {
	GameID          string           `json:"gameID"`
	Day             int              `json:"day"`
	Agent           *Agent           `json:"agent"`
	Role            Role             `json:"role"`
	DivineResults   []Judge          `json:"divineResults,omitempty"`
	Guards          []Guard          `json:"guards,omitempty"`
	Victim          *Agent           `json:"victim,omitempty"`
	HealAvailable   bool             `json:"healAvailable,omitempty"`
	PoisonAvailable bool             `json:"poisonAvailable,omitempty"`
	ExecutedAgent   *Agent           `json:"executedAgent,omitempty"`
	Deaths          []Agent          `json:"deaths,omitempty"`
	StatusMap       map[Agent]Status `json:"statusMap"`
	RoleMap         map[Agent]Role   `json:"roleMap"`
	RemainCount     *int             `json:"remainCount,omitempty"`
	RemainSkip      *int             `json:"remainSkip,omitempty"`
}

func (i Info) MarshalJSON() ([]byte, error) {
	statusMap := make(map[string]Status)
	for k, v := range i.StatusMap {
		statusMap[k.String()] = v
	}
	roleMap := make(map[string]Role)
	for k, v := range i.RoleMap {
		roleMap[k.String()] = v
	}
	type Alias Info
	return json.Marshal(&struct {
		*Alias
		StatusMap map[string]Status `json:"statusMap"`
		RoleMap   map[string]Role   `json:"roleMap"`
	}{
		Alias:     (*Alias)(&i),
		StatusMap: statusMap,
		RoleMap:   roleMap,
	})
}

func NewInfo(id string, agent *Agent, gameStatus *GameStatus, history []*GameStatus) Info {
	info := Info{
		GameID: id,
		Day:    gameStatus.Day,
		Agent:  agent,
		Role:   agent.Role,
	}
	for _, status := range history {
		if status == nil {
			continue
		}
		if status.DivineResult != nil && status.DivineResult.Agent == *agent {
			info.DivineResults = append(info.DivineResults, *status.DivineResult)
		}
		if status.Guard != nil && status.Guard.Agent == *agent {
			info.Guards = append(info.Guards, *status.Guard)
		}
	}
	if agent.Role == R_WITCH {
		info.Victim = gameStatus.AttackedAgent
		info.HealAvailable = !gameStatus.WitchHealUsed
		info.PoisonAvailable = !gameStatus.WitchPoisonUsed
	}
	info.ExecutedAgent = gameStatus.ExecutedAgent
	info.Deaths = gameStatus.Deaths
	info.StatusMap = gameStatus.StatusMap
	roleMap := make(map[Agent]Role)
	roleMap[*agent] = agent.Role
	if agent.Role.Species == S_WEREWOLF {
		for a := range gameStatus.StatusMap {
			if a.Role.Species == S_WEREWOLF {
				roleMap[a] = a.Role
			}
		}
	}
	info.RoleMap = roleMap
	if gameStatus.RemainCountMap != nil {
		count := (*gameStatus.RemainCountMap)[*agent]
		info.RemainCount = &count
	}
	if gameStatus.RemainSkipMap != nil {
		count := (*gameStatus.RemainSkipMap)[*agent]
		info.RemainSkip = &count
	}
	return info
}

func (i Info) AliveAgents() []Agent {
	return i.agentsWithStatus(S_ALIVE)
}

func (i Info) DeadAgents() []Agent {
	return i.agentsWithStatus(S_DEAD)
}

func (i Info) Teammates() []Agent {
	teammates := make([]Agent, 0)
	for a, role := range i.RoleMap {
		if a != *i.Agent && role.Species == S_WEREWOLF {
			teammates = append(teammates, a)
		}
	}
	sort.Slice(teammates, func(x, y int) bool { return teammates[x].Idx < teammates[y].Idx })
	return teammates
}

func (i Info) agentsWithStatus(status Status) []Agent {
	agents := make([]Agent, 0)
	for a, s := range i.StatusMap {
		if s == status {
			agents = append(agents, a)
		}
	}
	sort.Slice(agents, func(x, y int) bool { return agents[x].Idx < agents[y].Idx })
	return agents
}
