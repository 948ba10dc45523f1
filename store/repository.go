package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aiwolfdial/turandot/model"
)

var ErrGameNotFound = errors.New("game not found")

type AgentRecord struct {
	Idx         int    `json:"idx"`
	Name        string `json:"name"`
	Personality string `json:"personality,omitempty"`
	Role        string `json:"role"`
}

type GameRecord struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	WinSide    model.Team    `json:"win_side"`
	Agents     []AgentRecord `json:"agents"`
}

type EventRecord struct {
	GameID    string    `json:"game_id"`
	Idx       int       `json:"idx"`
	Day       int       `json:"day"`
	Phase     string    `json:"phase"`
	Kind      string    `json:"kind"`
	FromIdx   int       `json:"from_idx"`
	FromName  string    `json:"from_name,omitempty"`
	ToIdx     int       `json:"to_idx"`
	ToName    string    `json:"to_name,omitempty"`
	Text      string    `json:"text,omitempty"`
	Private   bool      `json:"private"`
	Timestamp time.Time `json:"timestamp"`
}

// Event rebuilds the model event. Agents only carry their seat and name.
func (r EventRecord) Event() model.Event {
	event := model.Event{
		GameID:    r.GameID,
		Idx:       r.Idx,
		Day:       r.Day,
		Phase:     model.Phase(r.Phase),
		Kind:      model.EventKind(r.Kind),
		Text:      r.Text,
		Private:   r.Private,
		Timestamp: r.Timestamp,
	}
	if r.FromIdx >= 0 {
		event.From = &model.Agent{Idx: r.FromIdx, Name: r.FromName}
	}
	if r.ToIdx >= 0 {
		event.To = &model.Agent{Idx: r.ToIdx, Name: r.ToName}
	}
	return event
}

func (s *Store) SaveGame(ctx context.Context, id string, agents []*model.Agent) error {
	records := make([]AgentRecord, 0, len(agents))
	for _, agent := range agents {
		records = append(records, AgentRecord{
			Idx:         agent.Idx,
			Name:        agent.Name,
			Personality: agent.Personality,
			Role:        agent.Role.Name,
		})
	}
	agentsJSON, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal agents: %w", err)
	}
	query := `INSERT INTO games (id, started_at, agents) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, id, time.Now().UnixMilli(), string(agentsJSON)); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, event model.Event) error {
	fromName, toName := "", ""
	if event.From != nil {
		fromName = event.From.Name
	}
	if event.To != nil {
		toName = event.To.Name
	}
	query := `
		INSERT INTO events (game_id, idx, day, phase, kind, from_idx, from_name, to_idx, to_name, text, private, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.GameID, event.Idx, event.Day, string(event.Phase), string(event.Kind),
		event.FromIdx(), fromName, event.ToIdx(), toName, event.Text, event.Private, event.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (s *Store) FinishGame(ctx context.Context, id string, winSide model.Team) error {
	result, err := s.db.ExecContext(ctx, `UPDATE games SET finished_at = ?, win_side = ? WHERE id = ?`, time.Now().UnixMilli(), string(winSide), id)
	if err != nil {
		return fmt.Errorf("failed to finish game: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrGameNotFound
	}
	return nil
}

func (s *Store) ListGames(ctx context.Context) ([]GameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, finished_at, win_side, agents FROM games ORDER BY started_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]GameRecord, 0)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

func (s *Store) GetGame(ctx context.Context, id string) (GameRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, started_at, finished_at, win_side, agents FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return GameRecord{}, ErrGameNotFound
	}
	return game, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (GameRecord, error) {
	var game GameRecord
	var startedAt int64
	var finishedAt sql.NullInt64
	var winSide, agentsJSON string
	if err := row.Scan(&game.ID, &startedAt, &finishedAt, &winSide, &agentsJSON); err != nil {
		return GameRecord{}, err
	}
	game.WinSide = model.TeamFromString(winSide)
	game.StartedAt = time.UnixMilli(startedAt)
	if finishedAt.Valid {
		finished := time.UnixMilli(finishedAt.Int64)
		game.FinishedAt = &finished
	}
	if err := json.Unmarshal([]byte(agentsJSON), &game.Agents); err != nil {
		return GameRecord{}, fmt.Errorf("failed to unmarshal agents: %w", err)
	}
	return game, nil
}

func (s *Store) EventsByGame(ctx context.Context, id string, includePrivate bool) ([]EventRecord, error) {
	query := `
		SELECT game_id, idx, day, phase, kind, from_idx, from_name, to_idx, to_name, text, private, timestamp
		FROM events WHERE game_id = ?`
	if !includePrivate {
		query += ` AND private = 0`
	}
	query += ` ORDER BY idx ASC`

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]EventRecord, 0)
	for rows.Next() {
		var e EventRecord
		var timestamp int64
		err := rows.Scan(
			&e.GameID, &e.Idx, &e.Day, &e.Phase, &e.Kind, &e.FromIdx, &e.FromName,
			&e.ToIdx, &e.ToName, &e.Text, &e.Private, &timestamp,
		)
		if err != nil {
			return nil, err
		}
		e.Timestamp = time.UnixMilli(timestamp)
		events = append(events, e)
	}
	return events, rows.Err()
}
