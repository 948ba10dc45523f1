package logic

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/prompt"
	"github.com/aiwolfdial/turandot/util"
)

func (g *Game) doWhisper(ctx context.Context) {
	slog.Info("囁きフェーズを開始します", "id", g.ID, "day", g.currentDay)
	g.conductCommunication(ctx, model.R_WHISPER)
}

func (g *Game) doTalk(ctx context.Context) {
	slog.Info("トークフェーズを開始します", "id", g.ID, "day", g.currentDay)
	g.conductCommunication(ctx, model.R_TALK)
}

// speakingOrder seats the speakers clockwise from the last death. Before
// anyone has died the table starts from a random seat.
func (g *Game) speakingOrder(agents []*model.Agent) []*model.Agent {
	anchor, ok := g.lastDeathIdx()
	if !ok {
		anchor = util.RandomSeat(g.Agents)
		slog.Info("死亡者がいないため、ランダムな席から発言を開始します", "id", g.ID, "anchor", anchor)
	}
	return util.SeatingOrder(agents, g.getCurrentGameStatus().StatusMap, anchor)
}

func (g *Game) conductCommunication(ctx context.Context, request model.Request) {
	var agents []*model.Agent
	var talkSetting *model.TalkSetting
	var talkList *[]model.Talk
	var kind model.EventKind

	switch request {
	case model.R_TALK:
		agents = g.getAliveAgents()
		talkSetting = &g.setting.Talk
		talkList = &g.getCurrentGameStatus().Talks
		kind = model.E_TALK
	case model.R_WHISPER:
		agents = g.getAliveWerewolves()
		talkSetting = &g.setting.Whisper
		talkList = &g.getCurrentGameStatus().Whispers
		kind = model.E_WHISPER
	default:
		return
	}
	if len(agents) < 2 {
		slog.Info("エージェント数が2未満のため、通信を行いません", "id", g.ID, "agentNum", len(agents))
		return
	}

	remainCountMap := make(map[model.Agent]int)
	remainSkipMap := make(map[model.Agent]int)
	for _, agent := range agents {
		remainCountMap[*agent] = talkSetting.MaxCount.PerAgent
		remainSkipMap[*agent] = talkSetting.MaxSkip
	}
	g.getCurrentGameStatus().RemainCountMap = &remainCountMap
	g.getCurrentGameStatus().RemainSkipMap = &remainSkipMap
	defer func() {
		g.getCurrentGameStatus().RemainCountMap = nil
		g.getCurrentGameStatus().RemainSkipMap = nil
	}()

	maxLength := 0
	if talkSetting.MaxLength.PerTalk != nil {
		maxLength = *talkSetting.MaxLength.PerTalk
	}
	order := g.speakingOrder(agents)
	idx := len(*talkList)
	for turn := range talkSetting.MaxCount.PerDay {
		spoke := false
		for _, agent := range order {
			if ctx.Err() != nil {
				return
			}
			if remainCountMap[*agent] <= 0 {
				continue
			}
			remainCountMap[*agent]--
			text, err := g.getTalkWhisperText(ctx, agent, request, prompt.RequestData{
				Round:     turn + 1,
				Remain:    remainCountMap[*agent] + 1,
				MaxLength: maxLength,
			})
			if err != nil {
				text = model.T_SKIP
				slog.Warn("リクエストの送受信に失敗したため、発言をスキップに置換しました", "id", g.ID, "agent", agent.String())
			} else if text == model.T_SKIP {
				if remainSkipMap[*agent] <= 0 {
					text = model.T_OVER
					slog.Warn("スキップ回数が上限に達したため、発言をオーバーに置換しました", "id", g.ID, "agent", agent.String())
				} else {
					remainSkipMap[*agent]--
					slog.Info("発言をスキップしました", "id", g.ID, "agent", agent.String())
				}
			}
			if text != model.T_OVER && text != model.T_SKIP {
				remainSkipMap[*agent] = talkSetting.MaxSkip
				if maxLength > 0 {
					if trimmed := util.TrimLength(text, maxLength); trimmed != text {
						text = trimmed
						slog.Warn("発言が最大文字数を超えたため、切り捨てました", "id", g.ID, "agent", agent.String())
					}
				}
			}
			talk := model.Talk{
				Idx:   idx,
				Day:   g.getCurrentGameStatus().Day,
				Turn:  turn,
				Agent: *agent,
				Text:  text,
			}
			idx++
			*talkList = append(*talkList, talk)
			if text != model.T_OVER {
				spoke = true
			} else {
				remainCountMap[*agent] = 0
				slog.Info("発言がオーバーであるため、残り発言回数を0にしました", "id", g.ID, "agent", agent.String())
			}

			audience := g.except(g.Agents, agent)
			if request == model.R_WHISPER {
				audience = g.except(agents, agent)
			}
			g.publish(ctx, model.Event{Kind: kind, From: agent, Text: text, Private: request == model.R_WHISPER}, audience)
			slog.Info("発言を受信しました", "id", g.ID, "agent", agent.String(), "text", text, "count", remainCountMap[*agent], "skip", remainSkipMap[*agent])
		}
		if !spoke {
			break
		}
	}
}

// getTalkWhisperText returns the normalized reply. A failed request is
// reported as an error and never counts against the skip limit.
func (g *Game) getTalkWhisperText(ctx context.Context, agent *model.Agent, request model.Request, data prompt.RequestData) (string, error) {
	text, err := g.requestToAgent(ctx, agent, request, data)
	if err != nil {
		return "", err
	}
	return normalizeTalk(text), nil
}

func normalizeTalk(text string) string {
	text = strings.TrimSpace(text)
	trimmed := strings.Trim(text, " .!\"'")
	switch {
	case text == "", strings.EqualFold(trimmed, model.T_SKIP):
		return model.T_SKIP
	case strings.EqualFold(trimmed, model.T_OVER):
		return model.T_OVER
	}
	return text
}
