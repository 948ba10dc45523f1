package logic

import (
	"context"
	"log/slog"

	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/prompt"
)

func (g *Game) doWitch(ctx context.Context) {
	slog.Info("魔女フェーズを開始します", "id", g.ID, "day", g.currentDay)
	for _, agent := range g.getAliveByRole(model.R_WITCH) {
		g.conductWitch(ctx, agent)
		break
	}
}

func (g *Game) conductWitch(ctx context.Context, agent *model.Agent) {
	status := g.getCurrentGameStatus()
	action := &model.WitchAction{Day: status.Day, Agent: *agent}

	if !status.WitchHealUsed && status.AttackedAgent != nil {
		victim := g.lookup(*status.AttackedAgent)
		target, err := g.findTargetByRequest(ctx, agent, model.R_WITCH_SAVE, prompt.RequestData{}, []*model.Agent{victim}, true)
		if err == nil && target != nil {
			status.WitchHealUsed = true
			action.Saved = target
			g.publish(ctx, model.Event{Kind: model.E_SAVE, From: agent, To: target, Private: true}, []*model.Agent{agent})
			slog.Info("回復薬を使用しました", "id", g.ID, "target", target.String())
		}
	}

	if !status.WitchPoisonUsed && !(action.Saved != nil && g.setting.Witch.OneActionPerNight) {
		target, err := g.findTargetByRequest(ctx, agent, model.R_WITCH_POISON, prompt.RequestData{}, g.except(g.getAliveAgents(), agent), true)
		if err == nil && target != nil {
			status.WitchPoisonUsed = true
			status.PoisonedAgent = target
			action.Poisoned = target
			g.publish(ctx, model.Event{Kind: model.E_POISON, From: agent, To: target, Private: true}, []*model.Agent{agent})
			slog.Info("毒薬を使用しました", "id", g.ID, "target", target.String())
		}
	}

	if action.Saved != nil || action.Poisoned != nil {
		status.WitchAction = action
	}
}

// resolveNight applies the attack and the poison. A guarded or healed victim
// survives; poison ignores the guard.
func (g *Game) resolveNight(ctx context.Context) {
	status := g.getCurrentGameStatus()
	if attacked := status.AttackedAgent; attacked != nil {
		saved := status.WitchAction != nil && status.WitchAction.Saved != nil && status.WitchAction.Saved.Idx == attacked.Idx
		switch {
		case g.isGuarded(attacked):
			slog.Info("護衛されたため、襲撃は失敗しました", "id", g.ID, "agent", attacked.String())
		case saved:
			slog.Info("回復薬により、襲撃は失敗しました", "id", g.ID, "agent", attacked.String())
		default:
			status.Kill(*attacked)
			slog.Info("襲撃結果を設定しました", "id", g.ID, "agent", attacked.String())
		}
	}
	if poisoned := status.PoisonedAgent; poisoned != nil {
		status.Kill(*poisoned)
		slog.Info("毒殺結果を設定しました", "id", g.ID, "agent", poisoned.String())
	}
}
