package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

type Profile struct {
	Name        string `yaml:"name" json:"name"`
	Personality string `yaml:"personality" json:"personality"`
}

type Agent struct {
	Idx         int
	Name        string
	Personality string
	Role        Role
}

func NewAgent(idx int, role Role, profile Profile) *Agent {
	name := profile.Name
	if name == "" {
		name = "Agent[" + fmt.Sprintf("%02d", idx) + "]"
	}
	agent := &Agent{
		Idx:         idx,
		Name:        name,
		Personality: profile.Personality,
		Role:        role,
	}
	slog.Info("エージェントを作成しました", "idx", agent.Idx, "agent", agent.String(), "role", agent.Role)
	return agent
}

func (a Agent) String() string {
	return a.Name
}

func (a Agent) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

type Status string

const (
	S_ALIVE Status = "ALIVE"
	S_DEAD  Status = "DEAD"
)

func (s Status) String() string {
	return string(s)
}

const (
	T_SKIP = "Skip"
	T_OVER = "Over"
)

// NoTarget is the decision answer for choosing nobody. No agent may use it
// as a name.
const NoTarget = "NOBODY"

type Talk struct {
	Idx   int    `json:"idx"`
	Day   int    `json:"day"`
	Turn  int    `json:"turn"`
	Agent Agent  `json:"agent"`
	Text  string `json:"text"`
}

type Vote struct {
	Day    int   `json:"day"`
	Round  int   `json:"round"`
	Agent  Agent `json:"agent"`
	Target Agent `json:"target"`
}

type Judge struct {
	Day    int     `json:"day"`
	Agent  Agent   `json:"agent"`
	Target Agent   `json:"target"`
	Result Species `json:"result"`
}

type Guard struct {
	Day    int   `json:"day"`
	Agent  Agent `json:"agent"`
	Target Agent `json:"target"`
}

type WitchAction struct {
	Day      int    `json:"day"`
	Agent    Agent  `json:"agent"`
	Saved    *Agent `json:"saved,omitempty"`
	Poisoned *Agent `json:"poisoned,omitempty"`
}
