package util

import "github.com/aiwolfdial/turandot/model"

func NewBroadcastPacket(event model.Event, agents []*model.Agent, statusMap map[model.Agent]model.Status) model.BroadcastPacket {
	packet := model.BroadcastPacket{
		Id:    event.GameID,
		Idx:   event.Idx,
		Day:   event.Day,
		IsDay: event.Phase == model.P_DAY,
		Event: string(event.Kind),
	}
	for _, agent := range agents {
		packet.Agents = append(packet.Agents, model.BroadcastAgent{
			Idx:         agent.Idx,
			Name:        agent.Name,
			Personality: agent.Personality,
			Role:        agent.Role.Name,
			IsAlive:     statusMap[*agent] == model.S_ALIVE,
		})
	}
	if event.Text != "" {
		text := event.Text
		packet.Message = &text
	}
	if event.From != nil {
		SetFrom(&packet, event.From)
		if event.Kind == model.E_TALK || event.Kind == model.E_WHISPER || event.Kind == model.E_LAST {
			SetBubble(&packet, event.From)
		}
	}
	if event.To != nil {
		SetTarget(&packet, event.To)
	}
	return packet
}

func SetFrom(packet *model.BroadcastPacket, agent *model.Agent) {
	idx := agent.Idx
	packet.FromIdx = &idx
}

func SetTarget(packet *model.BroadcastPacket, target *model.Agent) {
	idx := target.Idx
	packet.ToIdx = &idx
}

func SetBubble(packet *model.BroadcastPacket, agent *model.Agent) {
	idx := agent.Idx
	packet.BubbleIdx = &idx
}
