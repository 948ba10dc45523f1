package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Role struct {
	Name    string
	Team    Team
	Species Species
}

var (
	R_WEREWOLF  = Role{Name: "WEREWOLF", Team: T_WEREWOLF, Species: S_WEREWOLF}
	R_POSSESSED = Role{Name: "POSSESSED", Team: T_WEREWOLF, Species: S_HUMAN}
	R_SEER      = Role{Name: "SEER", Team: T_VILLAGER, Species: S_HUMAN}
	R_WITCH     = Role{Name: "WITCH", Team: T_VILLAGER, Species: S_HUMAN}
	R_BODYGUARD = Role{Name: "BODYGUARD", Team: T_VILLAGER, Species: S_HUMAN}
	R_VILLAGER  = Role{Name: "VILLAGER", Team: T_VILLAGER, Species: S_HUMAN}
	R_NONE      = Role{Name: "NONE", Team: T_NONE, Species: S_NONE}
)

type Team string

const (
	T_VILLAGER Team = "VILLAGER"
	T_WEREWOLF Team = "WEREWOLF"
	T_NONE     Team = "NONE"
)

func TeamFromString(s string) Team {
	switch s {
	case "VILLAGER":
		return T_VILLAGER
	case "WEREWOLF":
		return T_WEREWOLF
	}
	return T_NONE
}

type Species string

const (
	S_HUMAN    Species = "HUMAN"
	S_WEREWOLF Species = "WEREWOLF"
	S_NONE     Species = "NONE"
)

func (r Role) String() string {
	return r.Name
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func RoleFromString(s string) Role {
	switch s {
	case "WEREWOLF":
		return R_WEREWOLF
	case "POSSESSED":
		return R_POSSESSED
	case "SEER":
		return R_SEER
	case "WITCH":
		return R_WITCH
	case "BODYGUARD":
		return R_BODYGUARD
	case "VILLAGER":
		return R_VILLAGER
	}
	return R_NONE
}

var defaultRoles = map[int]map[Role]int{
	5:  {R_WEREWOLF: 1, R_POSSESSED: 1, R_SEER: 1, R_VILLAGER: 2},
	6:  {R_WEREWOLF: 2, R_SEER: 1, R_WITCH: 1, R_VILLAGER: 2},
	7:  {R_WEREWOLF: 2, R_SEER: 1, R_WITCH: 1, R_VILLAGER: 3},
	8:  {R_WEREWOLF: 2, R_SEER: 1, R_WITCH: 1, R_BODYGUARD: 1, R_VILLAGER: 3},
	9:  {R_WEREWOLF: 3, R_SEER: 1, R_WITCH: 1, R_BODYGUARD: 1, R_VILLAGER: 3},
	10: {R_WEREWOLF: 3, R_POSSESSED: 1, R_SEER: 1, R_WITCH: 1, R_BODYGUARD: 1, R_VILLAGER: 3},
}

func Roles(agentCount int) map[Role]int {
	roles, ok := defaultRoles[agentCount]
	if !ok {
		return nil
	}
	copied := make(map[Role]int, len(roles))
	for role, num := range roles {
		copied[role] = num
	}
	return copied
}

func RolesFromConfig(config Config) (map[Role]int, error) {
	roles, ok := config.Game.Roles[config.Game.AgentCount]
	if !ok {
		roleNumMap := Roles(config.Game.AgentCount)
		if roleNumMap == nil {
			return nil, errors.New("対応する役職の人数がありません")
		}
		return roleNumMap, nil
	}
	roleNumMap := make(map[Role]int)
	total := 0
	for roleName, num := range roles {
		role := RoleFromString(roleName)
		if role == R_NONE {
			return nil, fmt.Errorf("不明な役職名があります: %s", roleName)
		}
		if num < 0 {
			return nil, fmt.Errorf("役職の人数が負です: %s", roleName)
		}
		roleNumMap[role] = num
		total += num
	}
	if total != config.Game.AgentCount {
		return nil, fmt.Errorf("役職の人数の合計がエージェント数と一致しません: %d != %d", total, config.Game.AgentCount)
	}
	if roleNumMap[R_WEREWOLF] == 0 {
		return nil, errors.New("人狼が配役されていません")
	}
	return roleNumMap, nil
}
