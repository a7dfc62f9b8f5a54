package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// GameRecord is one finished game as kept by a StatsStore.
type GameRecord struct {
	Mode        string
	XDifficulty string
	ODifficulty string
	TimerMode   string
	Result      string
	Moves       int
	DurationMs  int64
	FinishedAt  time.Time
}

// StatsStore keeps all-time results across restarts. The in-game Scoreboard
// only covers the current process.
type StatsStore interface {
	RecordGame(ctx context.Context, record GameRecord) error
	Totals(ctx context.Context) (Scoreboard, error)
	Close() error
}

func gameRecordFromSummary(summary GameSummary, finishedAt time.Time) GameRecord {
	return GameRecord{
		Mode:        modeFromSettings(summary.Settings),
		XDifficulty: summary.Settings.XDifficulty.String(),
		ODifficulty: summary.Settings.ODifficulty.String(),
		TimerMode:   string(summary.Settings.TimerMode),
		Result:      statusToString(summary.Status),
		Moves:       summary.HumanMoves + summary.AiMoves,
		DurationMs:  summary.Duration.Milliseconds(),
		FinishedAt:  finishedAt,
	}
}

func scoreboardAdd(board *Scoreboard, result string, count int) {
	switch result {
	case "x_won":
		board.XWins += count
	case "o_won":
		board.OWins += count
	case "draw":
		board.Draws += count
	}
}

// OpenStatsStore picks Postgres when a database URL is configured and an
// in-memory store otherwise.
func OpenStatsStore(ctx context.Context, cfg Config) (StatsStore, error) {
	if cfg.DatabaseURL == "" {
		log.Printf("[stats] no database configured, keeping results in memory")
		return newMemoryStatsStore(), nil
	}
	store, err := openPostgresStatsStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Printf("[stats] recording results to postgres")
	return store, nil
}

type memoryStatsStore struct {
	mu      sync.Mutex
	records []GameRecord
}

func newMemoryStatsStore() *memoryStatsStore {
	return &memoryStatsStore{}
}

func (m *memoryStatsStore) RecordGame(_ context.Context, record GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryStatsStore) Totals(_ context.Context) (Scoreboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var totals Scoreboard
	for _, record := range m.records {
		scoreboardAdd(&totals, record.Result, 1)
	}
	return totals, nil
}

func (m *memoryStatsStore) Records() []GameRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GameRecord(nil), m.records...)
}

func (m *memoryStatsStore) Close() error {
	return nil
}

type postgresStatsStore struct {
	db *sql.DB
}

func openPostgresStatsStore(ctx context.Context, dsn string) (*postgresStatsStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}
	store := &postgresStatsStore{db: db}
	if err := store.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (p *postgresStatsStore) createTables(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS game_results (
			id SERIAL PRIMARY KEY,
			mode VARCHAR(20) NOT NULL,
			x_difficulty VARCHAR(10) NOT NULL,
			o_difficulty VARCHAR(10) NOT NULL,
			timer_mode VARCHAR(10) NOT NULL,
			result VARCHAR(10) NOT NULL,
			moves INT NOT NULL,
			duration_ms BIGINT NOT NULL,
			finished_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating game_results table: %w", err)
	}
	return nil
}

func (p *postgresStatsStore) RecordGame(ctx context.Context, record GameRecord) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO game_results (mode, x_difficulty, o_difficulty, timer_mode, result, moves, duration_ms, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.Mode, record.XDifficulty, record.ODifficulty, record.TimerMode,
		record.Result, record.Moves, record.DurationMs, record.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

func (p *postgresStatsStore) Totals(ctx context.Context) (Scoreboard, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT result, COUNT(*) FROM game_results GROUP BY result`)
	if err != nil {
		return Scoreboard{}, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()
	var totals Scoreboard
	for rows.Next() {
		var result string
		var count int
		if err := rows.Scan(&result, &count); err != nil {
			return Scoreboard{}, fmt.Errorf("scan totals: %w", err)
		}
		scoreboardAdd(&totals, result, count)
	}
	return totals, rows.Err()
}

func (p *postgresStatsStore) Close() error {
	return p.db.Close()
}
