package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aiwolfdial/turandot/model"
)

type JSONLogger struct {
	mu               sync.Mutex
	data             map[string]*JSONLog
	outputDir        string
	templateFilename string
}

type JSONLog struct {
	id           string
	filename     string
	agents       []any
	winSide      model.Team
	entries      []any
	timestampMap map[string]int64
	requestMap   map[string]any
}

func NewJSONLogger(config model.Config) *JSONLogger {
	return &JSONLogger{
		data:             make(map[string]*JSONLog),
		outputDir:        config.JSONLogger.OutputDir,
		templateFilename: config.JSONLogger.Filename,
	}
}

func (j *JSONLogger) TrackStartGame(id string, agents []*model.Agent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	data := &JSONLog{
		id:           id,
		filename:     expandFilename(j.templateFilename, id),
		agents:       make([]any, 0, len(agents)),
		entries:      make([]any, 0),
		timestampMap: make(map[string]int64),
		requestMap:   make(map[string]any),
		winSide:      model.T_NONE,
	}
	for _, agent := range agents {
		data.agents = append(data.agents, map[string]any{
			"idx":         agent.Idx,
			"name":        agent.Name,
			"personality": agent.Personality,
			"role":        agent.Role,
		})
	}
	j.data[id] = data
}

func (j *JSONLogger) TrackEndGame(id string, winSide model.Team) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if data, exists := j.data[id]; exists {
		data.winSide = winSide
		j.saveGameData(data)
		delete(j.data, id)
	}
}

func (j *JSONLogger) TrackStartRequest(id string, agent model.Agent, request model.Request, instruction string, candidates []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if data, exists := j.data[id]; exists {
		data.timestampMap[agent.Name] = time.Now().UnixNano()
		entry := map[string]any{
			"request": request.String(),
			"prompt":  instruction,
		}
		if len(candidates) > 0 {
			entry["candidates"] = candidates
		}
		data.requestMap[agent.Name] = entry
	}
}

func (j *JSONLogger) TrackEndRequest(id string, agent model.Agent, response string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if data, exists := j.data[id]; exists {
		timestamp := time.Now().UnixNano()
		entry := map[string]any{
			"agent":              agent.String(),
			"request_timestamp":  data.timestampMap[agent.Name] / 1e6,
			"response_timestamp": timestamp / 1e6,
		}
		if request, ok := data.requestMap[agent.Name]; ok {
			entry["request"] = request
		}
		if response != "" {
			entry["response"] = response
		}
		if err != nil {
			entry["error"] = err.Error()
		}
		data.entries = append(data.entries, entry)
		delete(data.timestampMap, agent.Name)
		delete(data.requestMap, agent.Name)
		j.saveGameData(data)
	}
}

func (j *JSONLogger) saveGameData(data *JSONLog) {
	game := map[string]any{
		"game_id":  data.id,
		"win_side": data.winSide,
		"agents":   data.agents,
		"entries":  data.entries,
	}
	jsonData, err := json.Marshal(game)
	if err != nil {
		slog.Error("JSONログの生成に失敗しました", "error", err)
		return
	}
	if err := os.MkdirAll(j.outputDir, 0755); err != nil {
		slog.Error("ログディレクトリの作成に失敗しました", "error", err)
		return
	}
	filePath := filepath.Join(j.outputDir, fmt.Sprintf("%s.json", data.filename))
	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		slog.Error("JSONログの保存に失敗しました", "error", err, "path", filePath)
	}
}
