package logic

import (
	"context"
	"log/slog"

	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/prompt"
	"github.com/aiwolfdial/turandot/util"
)

func (g *Game) getVotedCandidates(votes []model.Vote) []model.Agent {
	return util.GetCandidates(votes, func(vote model.Vote) bool {
		return true
	})
}

// doExecution runs a plurality vote. Ties go to a run-off among the tied
// agents until Vote.MaxCount rounds are used, then one of them is picked at
// random.
func (g *Game) doExecution(ctx context.Context) {
	slog.Info("追放フェーズを開始します", "id", g.ID, "day", g.currentDay)
	var executed *model.Agent
	candidates := g.getAliveAgents()
	tied := make([]model.Agent, 0)
	for round := 1; round <= g.setting.Vote.MaxCount; round++ {
		votes := g.executeVote(ctx, round, candidates)
		tied = g.getVotedCandidates(votes)
		if len(tied) == 0 {
			slog.Warn("有効な投票がありません", "id", g.ID, "round", round)
			break
		}
		if len(tied) == 1 {
			executed = g.lookup(tied[0])
			break
		}
		slog.Info("投票が同数のため、決選投票を行います", "id", g.ID, "round", round, "candidates", len(tied))
		candidates = g.lookupAll(tied)
	}
	if executed == nil && len(tied) > 1 {
		chosen := util.SelectRandomAgent(tied)
		executed = g.lookup(chosen)
		slog.Info("決選投票でも決まらなかったため、ランダムに選びました", "id", g.ID, "agent", executed.String())
	}
	if executed == nil {
		g.publish(ctx, model.Event{Kind: model.E_EXECUTE}, nil)
		slog.Warn("追放対象がいないため、追放結果を設定しません", "id", g.ID)
		slog.Info("追放フェーズを終了します", "id", g.ID, "day", g.currentDay)
		return
	}

	g.getCurrentGameStatus().Kill(*executed)
	g.getCurrentGameStatus().ExecutedAgent = executed
	g.publish(ctx, model.Event{Kind: model.E_EXECUTE, To: executed, Text: executed.Role.Name}, nil)
	slog.Info("追放結果を設定しました", "id", g.ID, "agent", executed.String())
	if g.setting.LastWords {
		g.doLastWords(ctx, executed)
	}
	slog.Info("追放フェーズを終了します", "id", g.ID, "day", g.currentDay)
}

func (g *Game) executeVote(ctx context.Context, round int, candidates []*model.Agent) []model.Vote {
	slog.Info("投票アクションを開始します", "id", g.ID, "day", g.currentDay, "round", round)
	status := g.getCurrentGameStatus()
	previous := status.LastVoteRound(status.Votes)
	votes := make([]model.Vote, 0)
	for _, agent := range g.getAliveAgents() {
		pool := candidates
		if !g.setting.Vote.AllowSelfVote {
			pool = g.except(candidates, agent)
		}
		if len(pool) == 0 {
			continue
		}
		target, err := g.findTargetByRequest(ctx, agent, model.R_VOTE, prompt.RequestData{Round: round, PreviousVotes: previous}, pool, false)
		if err != nil || target == nil {
			slog.Warn("投票を無視します", "id", g.ID, "agent", agent.String(), "error", err)
			continue
		}
		votes = append(votes, model.Vote{
			Day:    status.Day,
			Round:  round,
			Agent:  *agent,
			Target: *target,
		})
	}
	status.Votes = append(status.Votes, votes...)
	for _, vote := range votes {
		g.publish(ctx, model.Event{Kind: model.E_VOTE, From: g.lookup(vote.Agent), To: g.lookup(vote.Target)}, nil)
	}
	return votes
}

func (g *Game) doLastWords(ctx context.Context, agent *model.Agent) {
	text, err := g.requestToAgent(ctx, agent, model.R_LAST_WORDS, prompt.RequestData{})
	if err != nil {
		return
	}
	text = normalizeTalk(text)
	if text == model.T_SKIP || text == model.T_OVER {
		return
	}
	if perTalk := g.setting.Talk.MaxLength.PerTalk; perTalk != nil {
		text = util.TrimLength(text, *perTalk)
	}
	g.publish(ctx, model.Event{Kind: model.E_LAST, From: agent, Text: text}, g.except(g.Agents, agent))
}

func (g *Game) lookupAll(agents []model.Agent) []*model.Agent {
	found := make([]*model.Agent, 0, len(agents))
	for _, agent := range agents {
		if a := g.lookup(agent); a != nil {
			found = append(found, a)
		}
	}
	return found
}
