package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a single connection keeps writes from concurrent games serialized
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := createSchemas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	slog.Info("データベースを開きました", "path", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			win_side TEXT NOT NULL DEFAULT 'NONE',
			agents TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			game_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			day INTEGER NOT NULL,
			phase TEXT NOT NULL,
			kind TEXT NOT NULL,
			from_idx INTEGER NOT NULL,
			from_name TEXT NOT NULL,
			to_idx INTEGER NOT NULL,
			to_name TEXT NOT NULL,
			text TEXT NOT NULL,
			private BOOLEAN NOT NULL DEFAULT 0,
			timestamp INTEGER NOT NULL,
			PRIMARY KEY (game_id, idx),
			FOREIGN KEY (game_id) REFERENCES games(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_game_day ON events(game_id, day);`,
	}
	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}
