package logic

import (
	"context"
	"log/slog"

	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/prompt"
	"github.com/aiwolfdial/turandot/util"
)

func (g *Game) doGuard(ctx context.Context) {
	slog.Info("護衛フェーズを開始します", "id", g.ID, "day", g.currentDay)
	for _, agent := range g.getAliveByRole(model.R_BODYGUARD) {
		g.conductGuard(ctx, agent)
		break
	}
}

func (g *Game) conductGuard(ctx context.Context, agent *model.Agent) {
	slog.Info("護衛アクションを実行します", "id", g.ID, "agent", agent.String())
	pool := g.except(g.getAliveAgents(), agent)
	if g.setting.Guard.ForbidConsecutive {
		if last, ok := g.gameStatuses[g.currentDay-1]; ok && last.Guard != nil && last.Guard.Agent == *agent {
			previous := last.Guard.Target
			pool = util.FilterAgents(pool, func(a *model.Agent) bool { return a.Idx != previous.Idx })
		}
	}
	target, err := g.findTargetByRequest(ctx, agent, model.R_GUARD, prompt.RequestData{}, pool, false)
	if err != nil || target == nil {
		slog.Warn("護衛対象が見つからなかったため、護衛対象を設定しません", "id", g.ID, "error", err)
		return
	}
	g.getCurrentGameStatus().Guard = &model.Guard{
		Day:    g.getCurrentGameStatus().Day,
		Agent:  *agent,
		Target: *target,
	}
	g.publish(ctx, model.Event{Kind: model.E_GUARD, From: agent, To: target, Private: true}, []*model.Agent{agent})
	slog.Info("護衛対象を設定しました", "id", g.ID, "target", target.String())
}

func (g *Game) isGuarded(attacked *model.Agent) bool {
	guard := g.getCurrentGameStatus().Guard
	return guard != nil && guard.Target.Idx == attacked.Idx && g.isAlive(g.lookup(guard.Agent))
}
