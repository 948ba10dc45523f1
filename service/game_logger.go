package service

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aiwolfdial/turandot/model"
)

type GameLogger struct {
	mu               sync.Mutex
	data             map[string]*GameLog
	outputDir        string
	templateFilename string
}

type GameLog struct {
	id       string
	filename string
	logs     []string
}

func NewGameLogger(config model.Config) *GameLogger {
	return &GameLogger{
		data:             make(map[string]*GameLog),
		outputDir:        config.GameLogger.OutputDir,
		templateFilename: config.GameLogger.Filename,
	}
}

func (g *GameLogger) TrackStartGame(id string, agents []*model.Agent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	gameLog := &GameLog{
		id:       id,
		filename: expandFilename(g.templateFilename, id),
		logs:     make([]string, 0, len(agents)),
	}
	for _, agent := range agents {
		gameLog.logs = append(gameLog.logs, fmt.Sprintf("0,seat,%d,%s,%s", agent.Idx, agent.Role.Name, agent.Name))
	}
	g.data[id] = gameLog
	g.save(gameLog)
}

func (g *GameLogger) TrackEndGame(id string, agents []*model.Agent, statusMap map[model.Agent]model.Status, winSide model.Team) {
	g.mu.Lock()
	defer g.mu.Unlock()
	gameLog, exists := g.data[id]
	if !exists {
		return
	}
	humans, werewolves := 0, 0
	for _, agent := range agents {
		status := statusMap[*agent]
		gameLog.logs = append(gameLog.logs, fmt.Sprintf("end,status,%d,%s,%s,%s", agent.Idx, agent.Role.Name, status, agent.Name))
		if status == model.S_ALIVE {
			if agent.Role.Species == model.S_WEREWOLF {
				werewolves++
			} else {
				humans++
			}
		}
	}
	gameLog.logs = append(gameLog.logs, fmt.Sprintf("end,result,%d,%d,%s", humans, werewolves, winSide))
	g.save(gameLog)
	delete(g.data, id)
}

// AppendEvent writes one line per event: day,kind,from,to,text. Missing agents
// are written as -1.
func (g *GameLogger) AppendEvent(event model.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	gameLog, exists := g.data[event.GameID]
	if !exists {
		return
	}
	text := strings.ReplaceAll(event.Text, "\n", " ")
	gameLog.logs = append(gameLog.logs, fmt.Sprintf("%d,%s,%d,%d,%s", event.Day, event.Kind, event.FromIdx(), event.ToIdx(), text))
	g.save(gameLog)
}

func (g *GameLogger) save(gameLog *GameLog) {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		slog.Error("ログディレクトリの作成に失敗しました", "error", err)
		return
	}
	filePath := filepath.Join(g.outputDir, fmt.Sprintf("%s.log", gameLog.filename))
	if err := os.WriteFile(filePath, []byte(strings.Join(gameLog.logs, "\n")), 0644); err != nil {
		slog.Error("ゲームログの保存に失敗しました", "error", err, "path", filePath)
	}
}

func expandFilename(template string, id string) string {
	if template == "" {
		template = "{game_id}"
	}
	filename := strings.ReplaceAll(template, "{game_id}", id)
	return strings.ReplaceAll(filename, "{timestamp}", fmt.Sprintf("%d", time.Now().Unix()))
}
