package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aiwolfdial/turandot/model"
)

const subscriberBuffer = 256

type RealtimeBroadcaster struct {
	config      model.RealtimeBroadcasterConfig
	data        sync.Map
	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
}

type RealtimeBroadcasterLog struct {
	id        string
	filename  string
	logs      []string
	logsMu    sync.Mutex
	updatedAt time.Time
}

func NewRealtimeBroadcaster(config model.Config) (*RealtimeBroadcaster, error) {
	rb := &RealtimeBroadcaster{
		config:      config.RealtimeBroadcaster,
		subscribers: make(map[chan []byte]struct{}),
	}
	if err := os.MkdirAll(rb.config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	if err := os.WriteFile(filepath.Join(rb.config.OutputDir, "games.json"), []byte("[]"), 0644); err != nil {
		return nil, fmt.Errorf("ゲーム一覧ファイルの初期化に失敗しました: %w", err)
	}
	slog.Info("リアルタイムブロードキャスターを初期化しました", "output_dir", rb.config.OutputDir)
	return rb, nil
}

func (rb *RealtimeBroadcaster) TrackStartGame(id string) {
	gameLog := &RealtimeBroadcasterLog{
		id:        id,
		filename:  expandFilename(rb.config.Filename, id),
		logs:      make([]string, 0),
		updatedAt: time.Now(),
	}
	rb.data.Store(id, gameLog)
	rb.writeGamesListFile()
}

func (rb *RealtimeBroadcaster) TrackEndGame(id string) {
	if gameLogInterface, exists := rb.data.Load(id); exists {
		gameLog := gameLogInterface.(*RealtimeBroadcasterLog)
		gameLog.logsMu.Lock()
		logs := make([]string, len(gameLog.logs))
		copy(logs, gameLog.logs)
		filename := gameLog.filename
		gameLog.logsMu.Unlock()

		rb.writeGameFile(filename, logs)
		rb.data.Delete(id)
		rb.writeGamesListFile()
	}
}

func (rb *RealtimeBroadcaster) Broadcast(packet model.BroadcastPacket) {
	data, err := json.Marshal(packet)
	if err != nil {
		slog.Error("パケットのJSON化に失敗しました", "error", err)
		return
	}

	if gameLogInterface, exists := rb.data.Load(packet.Id); exists {
		gameLog := gameLogInterface.(*RealtimeBroadcasterLog)
		gameLog.logsMu.Lock()
		gameLog.logs = append(gameLog.logs, string(data))
		gameLog.updatedAt = time.Now()
		logs := make([]string, len(gameLog.logs))
		copy(logs, gameLog.logs)
		filename := gameLog.filename
		gameLog.logsMu.Unlock()

		rb.writeGameFile(filename, logs)
		rb.writeGamesListFile()
		slog.Debug("JSONLファイルにブロードキャストを保存しました", "game_id", packet.Id)
	}
	rb.publish(data)
}

// Subscribe returns a feed of every broadcast packet. Slow subscribers drop
// packets instead of blocking the game.
func (rb *RealtimeBroadcaster) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)
	rb.mu.Lock()
	rb.subscribers[ch] = struct{}{}
	rb.mu.Unlock()
	slog.Info("購読者を追加しました")

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			rb.mu.Lock()
			delete(rb.subscribers, ch)
			close(ch)
			rb.mu.Unlock()
			slog.Info("購読者を削除しました")
		})
	}
}

func (rb *RealtimeBroadcaster) publish(data []byte) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	for ch := range rb.subscribers {
		select {
		case ch <- data:
		default:
			slog.Warn("購読者のバッファが一杯のため、パケットを破棄しました")
		}
	}
}

func (rb *RealtimeBroadcaster) OutputDir() string {
	return rb.config.OutputDir
}

func (rb *RealtimeBroadcaster) writeGamesListFile() {
	type Item struct {
		ID        string    `json:"id"`
		Filename  string    `json:"filename"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	items := make([]Item, 0)
	rb.data.Range(func(_, value any) bool {
		gameLog := value.(*RealtimeBroadcasterLog)
		gameLog.logsMu.Lock()
		items = append(items, Item{
			ID:        gameLog.id,
			Filename:  gameLog.filename,
			UpdatedAt: gameLog.updatedAt,
		})
		gameLog.logsMu.Unlock()
		return true
	})
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	data, err := json.Marshal(items)
	if err != nil {
		slog.Error("ゲーム一覧のJSON生成に失敗しました", "error", err)
		return
	}
	filePath := filepath.Join(rb.config.OutputDir, "games.json")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		slog.Error("ゲーム一覧ファイルの作成に失敗しました", "error", err)
	}
}

func (rb *RealtimeBroadcaster) writeGameFile(filename string, logs []string) {
	filePath := filepath.Join(rb.config.OutputDir, fmt.Sprintf("%s.jsonl", filename))
	content := strings.Join(logs, "\n")
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		slog.Error("ゲームファイルの保存に失敗しました", "error", err, "path", filePath)
	}
}
