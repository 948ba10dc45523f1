package logic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/prompt"
	"github.com/aiwolfdial/turandot/util"
)

const noTarget = model.NoTarget

var errNoCandidates = errors.New("候補がいません")

// publish records an event and feeds it to every sink. A nil audience means
// every agent observes it.
func (g *Game) publish(ctx context.Context, event model.Event, audience []*model.Agent) model.Event {
	event = g.newEvent(event)
	if audience == nil {
		audience = g.Agents
	}
	line := prompt.Describe(event)
	for _, agent := range audience {
		if transcript, ok := g.transcripts[*agent]; ok {
			transcript.Observe(line)
		}
	}
	if g.gameLogger != nil {
		g.gameLogger.AppendEvent(event)
	}
	if g.realtimeBroadcaster != nil {
		g.realtimeBroadcaster.Broadcast(util.NewBroadcastPacket(event, g.Agents, g.getCurrentGameStatus().StatusMap))
	}
	if g.store != nil {
		if err := g.store.AppendEvent(context.WithoutCancel(ctx), event); err != nil {
			slog.Error("イベントの保存に失敗しました", "id", g.ID, "error", err)
		}
	}
	if g.narrator != nil {
		g.narrator.Narrate(ctx, event)
	}
	return event
}

func (g *Game) requestToAgent(ctx context.Context, agent *model.Agent, request model.Request, data prompt.RequestData) (string, error) {
	data.Info = g.buildInfo(agent)
	data.NoTarget = noTarget
	instruction, err := prompt.Request(request, data)
	if err != nil {
		return "", err
	}
	transcript := g.transcripts[*agent]
	messages := append(transcript.Messages(), model.Message{Role: model.MessageUser, Content: instruction})

	if g.jsonLogger != nil {
		g.jsonLogger.TrackStartRequest(g.ID, *agent, request, instruction, data.Candidates)
	}
	resp, err := g.responder.Respond(ctx, *agent, request, messages, data.Candidates)
	if g.jsonLogger != nil {
		g.jsonLogger.TrackEndRequest(g.ID, *agent, resp, err)
	}
	if err != nil {
		g.errorCounts[*agent]++
		slog.Warn("リクエストの送受信に失敗しました", "id", g.ID, "agent", agent.String(), "request", request.String(), "error", err)
		return "", err
	}
	transcript.Observe(instruction)
	if resp != "" {
		transcript.Said(resp)
	}
	return resp, nil
}

// findTargetByRequest asks for a decision among pool. A nil target with a nil
// error means the agent chose nobody.
func (g *Game) findTargetByRequest(ctx context.Context, agent *model.Agent, request model.Request, data prompt.RequestData, pool []*model.Agent, allowNone bool) (*model.Agent, error) {
	if len(pool) == 0 {
		return nil, errNoCandidates
	}
	data.Candidates = util.AgentNames(pool)
	if allowNone {
		data.Candidates = append(data.Candidates, noTarget)
	}
	name, err := g.requestToAgent(ctx, agent, request, data)
	if err != nil {
		return nil, err
	}
	if allowNone && name == noTarget {
		slog.Info("対象なしを受信しました", "id", g.ID, "agent", agent.String(), "request", request.String())
		return nil, nil
	}
	target := util.FindAgentByName(pool, name)
	if target == nil {
		g.errorCounts[*agent]++
		return nil, fmt.Errorf("対象エージェントが見つかりません: %s", name)
	}
	slog.Info("対象エージェントを受信しました", "id", g.ID, "agent", agent.String(), "target", target.String())
	return target, nil
}

func (g *Game) buildInfo(agent *model.Agent) model.Info {
	history := make([]*model.GameStatus, 0, g.currentDay+1)
	for day := 0; day <= g.currentDay; day++ {
		if status, ok := g.gameStatuses[day]; ok {
			history = append(history, status)
		}
	}
	return model.NewInfo(g.ID, agent, g.getCurrentGameStatus(), history)
}

func (g *Game) getCurrentGameStatus() *model.GameStatus {
	return g.gameStatuses[g.currentDay]
}

func (g *Game) getAliveAgents() []*model.Agent {
	return util.FilterAgents(g.Agents, func(agent *model.Agent) bool {
		return g.isAlive(agent)
	})
}

func (g *Game) getAliveWerewolves() []*model.Agent {
	return util.FilterAgents(g.Agents, func(agent *model.Agent) bool {
		return g.isAlive(agent) && agent.Role.Species == model.S_WEREWOLF
	})
}

func (g *Game) getAliveByRole(role model.Role) []*model.Agent {
	return util.FilterAgents(g.Agents, func(agent *model.Agent) bool {
		return g.isAlive(agent) && agent.Role == role
	})
}

func (g *Game) isAlive(agent *model.Agent) bool {
	return g.getCurrentGameStatus().StatusMap[*agent] == model.S_ALIVE
}

func (g *Game) aliveNames() []string {
	return util.AgentNames(g.getAliveAgents())
}

func (g *Game) lookup(agent model.Agent) *model.Agent {
	for _, a := range g.Agents {
		if a.Idx == agent.Idx {
			return a
		}
	}
	return nil
}

func (g *Game) except(agents []*model.Agent, excluded *model.Agent) []*model.Agent {
	return util.FilterAgents(agents, func(agent *model.Agent) bool {
		return excluded == nil || agent.Idx != excluded.Idx
	})
}

// lastDeathIdx returns the seat of the most recent death in the game.
func (g *Game) lastDeathIdx() (int, bool) {
	for day := g.currentDay; day >= 0; day-- {
		status, ok := g.gameStatuses[day]
		if !ok || len(status.Deaths) == 0 {
			continue
		}
		return status.Deaths[len(status.Deaths)-1].Idx, true
	}
	return 0, false
}
