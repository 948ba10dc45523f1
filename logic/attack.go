package logic

import (
	"context"
	"log/slog"

	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/prompt"
	"github.com/aiwolfdial/turandot/util"
)

func (g *Game) getAttackVotedCandidates(votes []model.Vote) []model.Agent {
	return util.GetCandidates(votes, func(vote model.Vote) bool {
		return vote.Target.Role.Species != model.S_WEREWOLF
	})
}

// doAttack repeats the attack vote until every alive werewolf names the same
// victim or AttackVote.MaxCount rounds have passed.
func (g *Game) doAttack(ctx context.Context) {
	slog.Info("襲撃フェーズを開始します", "id", g.ID, "day", g.currentDay)
	werewolves := g.getAliveWerewolves()
	if len(werewolves) == 0 {
		return
	}
	targets := util.FilterAgents(g.getAliveAgents(), func(agent *model.Agent) bool {
		return agent.Role.Species != model.S_WEREWOLF
	})

	var attacked *model.Agent
	previous := make([]model.Vote, 0)
	for round := 1; round <= g.setting.AttackVote.MaxCount; round++ {
		votes := g.executeAttackVote(ctx, round, werewolves, targets, previous)
		if target, ok := util.IsUnanimous(votes, len(werewolves)); ok {
			attacked = g.lookup(target)
			slog.Info("襲撃対象が全会一致で決まりました", "id", g.ID, "round", round, "agent", attacked.String())
			break
		}
		previous = votes
	}
	if attacked == nil && !g.setting.AttackVote.AllowNoTarget {
		candidates := g.getAttackVotedCandidates(previous)
		if len(candidates) > 0 {
			chosen := util.SelectRandomAgent(candidates)
			attacked = g.lookup(chosen)
			slog.Info("全会一致にならなかったため、最多得票からランダムに選びました", "id", g.ID, "agent", attacked.String())
		}
	}

	g.getCurrentGameStatus().AttackedAgent = attacked
	g.publish(ctx, model.Event{Kind: model.E_ATTACK, To: attacked, Private: true}, werewolves)
	if attacked == nil {
		slog.Info("襲撃対象がいないため、襲撃結果を設定しません", "id", g.ID)
	}
	slog.Info("襲撃フェーズを終了します", "id", g.ID, "day", g.currentDay)
}

func (g *Game) executeAttackVote(ctx context.Context, round int, werewolves []*model.Agent, targets []*model.Agent, previous []model.Vote) []model.Vote {
	slog.Info("襲撃投票アクションを開始します", "id", g.ID, "day", g.currentDay, "round", round)
	votes := make([]model.Vote, 0)
	for _, agent := range werewolves {
		target, err := g.findTargetByRequest(ctx, agent, model.R_ATTACK, prompt.RequestData{Round: round, PreviousVotes: previous}, targets, false)
		if err != nil || target == nil {
			slog.Warn("襲撃投票を無視します", "id", g.ID, "agent", agent.String(), "error", err)
			continue
		}
		votes = append(votes, model.Vote{
			Day:    g.getCurrentGameStatus().Day,
			Round:  round,
			Agent:  *agent,
			Target: *target,
		})
	}
	g.getCurrentGameStatus().AttackVotes = append(g.getCurrentGameStatus().AttackVotes, votes...)
	for _, vote := range votes {
		g.publish(ctx, model.Event{Kind: model.E_ATTACK_V, From: g.lookup(vote.Agent), To: g.lookup(vote.Target), Private: true}, werewolves)
	}
	return votes
}
