package logic

import (
	"context"
	"log/slog"

	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/prompt"
)

func (g *Game) doDivine(ctx context.Context) {
	slog.Info("占いフェーズを開始します", "id", g.ID, "day", g.currentDay)
	for _, agent := range g.getAliveByRole(model.R_SEER) {
		g.conductDivination(ctx, agent)
		break
	}
	slog.Info("占いフェーズを終了します", "id", g.ID, "day", g.currentDay)
}

func (g *Game) conductDivination(ctx context.Context, agent *model.Agent) {
	slog.Info("占いアクションを開始します", "id", g.ID, "agent", agent.String())
	target, err := g.findTargetByRequest(ctx, agent, model.R_DIVINE, prompt.RequestData{}, g.except(g.getAliveAgents(), agent), false)
	if err != nil || target == nil {
		slog.Warn("占い対象が見つからなかったため、占い結果を設定しません", "id", g.ID, "error", err)
		return
	}
	g.getCurrentGameStatus().DivineResult = &model.Judge{
		Day:    g.getCurrentGameStatus().Day,
		Agent:  *agent,
		Target: *target,
		Result: target.Role.Species,
	}
	g.publish(ctx, model.Event{Kind: model.E_DIVINE, From: agent, To: target, Text: string(target.Role.Species), Private: true}, []*model.Agent{agent})
	slog.Info("占い結果を設定しました", "id", g.ID, "target", target.String(), "result", target.Role.Species)
}
