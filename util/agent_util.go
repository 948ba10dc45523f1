package util

import (
	"math/rand/v2"
	"strings"

	"github.com/aiwolfdial/turandot/model"
)

func SelectRandomAgent(agents []model.Agent) model.Agent {
	return agents[rand.IntN(len(agents))]
}

func FilterAgents(agents []*model.Agent, filter func(*model.Agent) bool) []*model.Agent {
	filtered := make([]*model.Agent, 0)
	for _, agent := range agents {
		if filter(agent) {
			filtered = append(filtered, agent)
		}
	}
	return filtered
}

func FindAgentByName(agents []*model.Agent, name string) *model.Agent {
	name = strings.TrimSpace(name)
	for _, agent := range agents {
		if strings.EqualFold(agent.String(), name) {
			return agent
		}
	}
	return nil
}

func AgentNames(agents []*model.Agent) []string {
	names := make([]string, 0, len(agents))
	for _, agent := range agents {
		names = append(names, agent.String())
	}
	return names
}
