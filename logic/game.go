package logic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aiwolfdial/turandot/model"
	"github.com/aiwolfdial/turandot/prompt"
	"github.com/aiwolfdial/turandot/service"
	"github.com/aiwolfdial/turandot/store"
	"github.com/aiwolfdial/turandot/util"
	"github.com/oklog/ulid/v2"
)

// Responder answers a request on behalf of an agent. Decisions must return one
// of the candidates; talk requests get no candidates and return free text.
type Responder interface {
	Respond(ctx context.Context, agent model.Agent, request model.Request, messages []model.Message, candidates []string) (string, error)
}

type Narrator interface {
	Narrate(ctx context.Context, event model.Event)
}

type Game struct {
	ID                  string
	Agents              []*model.Agent
	config              *model.Config
	setting             *model.Setting
	responder           Responder
	currentDay          int
	phase               model.Phase
	gameStatuses        map[int]*model.GameStatus
	transcripts         map[model.Agent]*model.Transcript
	errorCounts         map[model.Agent]int
	eventIdx            int
	jsonLogger          *service.JSONLogger
	gameLogger          *service.GameLogger
	realtimeBroadcaster *service.RealtimeBroadcaster
	store               *store.Store
	narrator            Narrator
}

func NewGame(config *model.Config, settings *model.Setting, profiles []model.Profile, responder Responder) (*Game, error) {
	if len(profiles) != settings.AgentCount {
		return nil, fmt.Errorf("プロフィール数がエージェント数と一致しません: %d != %d", len(profiles), settings.AgentCount)
	}
	return NewGameWithAgents(config, settings, util.CreateAgents(profiles, settings.RoleNumMap), responder)
}

func NewGameWithAgents(config *model.Config, settings *model.Setting, agents []*model.Agent, responder Responder) (*Game, error) {
	if len(agents) == 0 {
		return nil, errors.New("エージェントがいません")
	}
	id := ulid.Make().String()
	gameStatus := model.NewInitializeGameStatus(agents)
	g := &Game{
		ID:           id,
		Agents:       agents,
		config:       config,
		setting:      settings,
		responder:    responder,
		phase:        model.P_DAY,
		gameStatuses: map[int]*model.GameStatus{0: &gameStatus},
		transcripts:  make(map[model.Agent]*model.Transcript),
		errorCounts:  make(map[model.Agent]int),
	}
	for _, agent := range agents {
		system, err := prompt.System(g.systemData(agent))
		if err != nil {
			return nil, err
		}
		g.transcripts[*agent] = model.NewTranscript(system)
	}
	slog.Info("ゲームを作成しました", "id", id)
	return g, nil
}

func (g *Game) SetJSONLogger(jsonLogger *service.JSONLogger) {
	g.jsonLogger = jsonLogger
}

func (g *Game) SetGameLogger(gameLogger *service.GameLogger) {
	g.gameLogger = gameLogger
}

func (g *Game) SetRealtimeBroadcaster(realtimeBroadcaster *service.RealtimeBroadcaster) {
	g.realtimeBroadcaster = realtimeBroadcaster
}

func (g *Game) SetStore(store *store.Store) {
	g.store = store
}

func (g *Game) SetNarrator(narrator Narrator) {
	g.narrator = narrator
}

func (g *Game) Transcript(agent model.Agent) []model.Message {
	if transcript, ok := g.transcripts[agent]; ok {
		return transcript.Messages()
	}
	return nil
}

func (g *Game) Start(ctx context.Context) model.Team {
	slog.Info("ゲームを開始します", "id", g.ID)
	g.trackStart(ctx)
	g.publish(ctx, model.Event{Kind: model.E_START, Text: fmt.Sprintf("%d villagers gather: %s.", len(g.Agents), strings.Join(util.AgentNames(g.Agents), ", "))}, nil)

	winSide := model.T_NONE
	for {
		if ctx.Err() != nil {
			slog.Warn("コンテキストがキャンセルされたため、ゲームを終了します", "id", g.ID, "error", ctx.Err())
			break
		}
		if g.tooManyErrors() {
			slog.Warn("エラーが多発したため、ゲームを終了します", "id", g.ID)
			break
		}
		if winSide = g.progressDay(ctx); winSide != model.T_NONE {
			break
		}
		if winSide = g.progressNight(ctx); winSide != model.T_NONE {
			break
		}
		if g.currentDay >= g.setting.MaxDay {
			slog.Warn("最大日数に達したため、ゲームを終了します", "id", g.ID, "day", g.currentDay)
			break
		}
		gameStatus := g.getCurrentGameStatus().NextDay()
		g.gameStatuses[g.currentDay+1] = &gameStatus
		g.currentDay++
		slog.Info("日付が進みました", "id", g.ID, "day", g.currentDay)
	}

	g.finish(ctx, winSide)
	return winSide
}

func (g *Game) progressDay(ctx context.Context) model.Team {
	slog.Info("昼を開始します", "id", g.ID, "day", g.currentDay)
	g.phase = model.P_DAY
	g.publish(ctx, model.Event{Kind: model.E_STATUS, Text: fmt.Sprintf("Alive: %s.", strings.Join(g.aliveNames(), ", "))}, nil)
	g.announceDeaths(ctx)
	g.doTalk(ctx)
	if g.currentDay != 0 {
		g.doExecution(ctx)
	}
	slog.Info("昼を終了します", "id", g.ID, "day", g.currentDay)
	return util.CalcWinSideTeam(g.getCurrentGameStatus().StatusMap)
}

func (g *Game) progressNight(ctx context.Context) model.Team {
	slog.Info("夜を開始します", "id", g.ID, "day", g.currentDay)
	g.phase = model.P_NIGHT
	g.publish(ctx, model.Event{Kind: model.E_STATUS, Text: "Everyone goes to sleep."}, nil)
	g.doWhisper(ctx)
	if g.currentDay != 0 {
		g.doAttack(ctx)
		g.doGuard(ctx)
	}
	g.doDivine(ctx)
	if g.currentDay != 0 {
		g.doWitch(ctx)
		g.resolveNight(ctx)
	}
	slog.Info("夜を終了します", "id", g.ID, "day", g.currentDay)
	return util.CalcWinSideTeam(g.getCurrentGameStatus().StatusMap)
}

func (g *Game) announceDeaths(ctx context.Context) {
	last, ok := g.gameStatuses[g.currentDay-1]
	if !ok {
		return
	}
	deaths := make([]model.Agent, 0)
	for _, agent := range last.Deaths {
		if last.ExecutedAgent == nil || agent != *last.ExecutedAgent {
			deaths = append(deaths, agent)
		}
	}
	if len(deaths) == 0 {
		g.publish(ctx, model.Event{Kind: model.E_DEATH}, nil)
		return
	}
	for _, agent := range deaths {
		g.publish(ctx, model.Event{Kind: model.E_DEATH, To: g.lookup(agent), Text: agent.Role.Name}, nil)
	}
}

func (g *Game) finish(ctx context.Context, winSide model.Team) {
	gameStatus := g.getCurrentGameStatus()
	villagers, werewolves := util.CountAliveTeams(gameStatus.StatusMap)
	roles := make([]string, 0, len(g.Agents))
	for _, agent := range g.Agents {
		roles = append(roles, fmt.Sprintf("%s=%s", agent.Name, agent.Role.Name))
	}
	text := fmt.Sprintf("%s wins (%d humans, %d werewolves alive). Roles: %s.", winSide, villagers, werewolves, strings.Join(roles, ", "))
	if winSide == model.T_NONE {
		text = fmt.Sprintf("No side won (%d humans, %d werewolves alive). Roles: %s.", villagers, werewolves, strings.Join(roles, ", "))
	}
	g.publish(context.WithoutCancel(ctx), model.Event{Kind: model.E_RESULT, Text: text}, nil)

	if g.jsonLogger != nil {
		g.jsonLogger.TrackEndGame(g.ID, winSide)
	}
	if g.gameLogger != nil {
		g.gameLogger.TrackEndGame(g.ID, g.Agents, gameStatus.StatusMap, winSide)
	}
	if g.realtimeBroadcaster != nil {
		g.realtimeBroadcaster.TrackEndGame(g.ID)
	}
	if g.store != nil {
		if err := g.store.FinishGame(context.WithoutCancel(ctx), g.ID, winSide); err != nil {
			slog.Error("ゲーム結果の保存に失敗しました", "id", g.ID, "error", err)
		}
	}
	slog.Info("ゲームが終了しました", "id", g.ID, "winSide", winSide)
}

func (g *Game) trackStart(ctx context.Context) {
	if g.jsonLogger != nil {
		g.jsonLogger.TrackStartGame(g.ID, g.Agents)
	}
	if g.gameLogger != nil {
		g.gameLogger.TrackStartGame(g.ID, g.Agents)
	}
	if g.realtimeBroadcaster != nil {
		g.realtimeBroadcaster.TrackStartGame(g.ID)
	}
	if g.store != nil {
		if err := g.store.SaveGame(ctx, g.ID, g.Agents); err != nil {
			slog.Error("ゲームの保存に失敗しました", "id", g.ID, "error", err)
		}
	}
}

func (g *Game) tooManyErrors() bool {
	errored := 0
	for _, count := range g.errorCounts {
		if count > 0 {
			errored++
		}
	}
	return errored > 0 && errored >= int(float64(len(g.Agents))*g.config.Game.MaxContinueErrorRatio)
}

func (g *Game) systemData(agent *model.Agent) prompt.SystemData {
	data := prompt.SystemData{
		Agent:   *agent,
		Setting: *g.setting,
	}
	seats := make([]model.Agent, 0, len(g.Agents))
	for _, a := range g.Agents {
		seats = append(seats, *a)
		if agent.Role.Species == model.S_WEREWOLF && a.Role.Species == model.S_WEREWOLF && a.Idx != agent.Idx {
			data.Teammates = append(data.Teammates, *a)
		}
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].Idx < seats[j].Idx })
	data.Agents = seats
	return data
}

func (g *Game) newEvent(event model.Event) model.Event {
	g.eventIdx++
	event.GameID = g.ID
	event.Idx = g.eventIdx
	event.Day = g.currentDay
	event.Phase = g.phase
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event
}
