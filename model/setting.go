package model

import (
	"encoding/json"
)

type Setting struct {
	AgentCount int          `json:"agentCount"`
	RoleNumMap map[Role]int `json:"roleNumMap"`
	MaxDay     int          `json:"maxDay"`
	Talk       TalkSetting  `json:"talk"`
	Whisper    TalkSetting  `json:"whisper"`
	Vote       struct {
		MaxCount      int  `json:"maxCount"`
		AllowSelfVote bool `json:"allowSelfVote"`
	} `json:"vote"`
	AttackVote struct {
		MaxCount      int  `json:"maxCount"`
		AllowNoTarget bool `json:"allowNoTarget"`
	} `json:"attackVote"`
	Guard struct {
		ForbidConsecutive bool `json:"forbidConsecutive"`
	} `json:"guard"`
	Witch struct {
		OneActionPerNight bool `json:"oneActionPerNight"`
	} `json:"witch"`
	LastWords bool `json:"lastWords"`
}

type TalkSetting struct {
	MaxCount struct {
		PerAgent int `json:"perAgent"`
		PerDay   int `json:"perDay"`
	} `json:"maxCount"`
	MaxLength struct {
		PerTalk *int `json:"perTalk,omitempty"`
	} `json:"maxLength"`
	MaxSkip int `json:"maxSkip"`
}

func newTalkSetting(config TalkConfig) TalkSetting {
	var setting TalkSetting
	setting.MaxCount.PerAgent = config.MaxCount.PerAgent
	setting.MaxCount.PerDay = config.MaxCount.PerDay
	if config.MaxLength.PerTalk > 0 {
		perTalk := config.MaxLength.PerTalk
		setting.MaxLength.PerTalk = &perTalk
	}
	setting.MaxSkip = config.MaxSkip
	return setting
}

func NewSetting(config Config) (*Setting, error) {
	roleNumMap, err := RolesFromConfig(config)
	if err != nil {
		return nil, err
	}
	setting := Setting{
		AgentCount: config.Game.AgentCount,
		RoleNumMap: roleNumMap,
		MaxDay:     config.Game.MaxDay,
		Talk:       newTalkSetting(config.Game.Talk),
		Whisper:    newTalkSetting(config.Game.Whisper),
		LastWords:  config.Game.LastWords.Enable,
	}
	setting.Vote.MaxCount = max(config.Game.Vote.MaxCount, 1)
	setting.Vote.AllowSelfVote = config.Game.Vote.AllowSelfVote
	setting.AttackVote.MaxCount = max(config.Game.Attack.MaxCount, 1)
	setting.AttackVote.AllowNoTarget = config.Game.Attack.AllowNoTarget
	setting.Guard.ForbidConsecutive = config.Game.Guard.ForbidConsecutive
	setting.Witch.OneActionPerNight = config.Game.Witch.OneActionPerNight
	return &setting, nil
}

func (s Setting) MarshalJSON() ([]byte, error) {
	roleNumMap := make(map[string]int)
	for k, v := range s.RoleNumMap {
		roleNumMap[k.String()] = v
	}
	type Alias Setting
	return json.Marshal(&struct {
		*Alias
		RoleNumMap map[string]int `json:"roleNumMap"`
	}{
		Alias:      (*Alias)(&s),
		RoleNumMap: roleNumMap,
	})
}
