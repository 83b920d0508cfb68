// Package leaderboard persists retired players' final scores to Postgres
// and serves ranked, paginated reads.
//
// Grounded on the original RetirePlayersRepositoryImpl (retire_repositoryImpl.h):
// a single append-only table, an index on (score DESC, play_time ASC, name
// ASC) matching the read order exactly, and parameterized INSERT/SELECT
// statements. Uses github.com/jackc/pgx/v5's pgxpool, the pooled-connection
// pattern the MOHCentral-opm-stats-api handlers use for their own Postgres
// access.
package leaderboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one ranked leaderboard entry.
type Record struct {
	Name         string
	Score        int
	PlayTimeSecs float64
}

// Sink is a Postgres-backed append-only store of retired players.
type Sink struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres at dbURL and returns a Sink. Callers should
// call EnsureSchema once at startup before using Add/Get.
func Open(ctx context.Context, dbURL string) (*Sink, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: connect: %w", err)
	}
	return &Sink{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Sink) Close() { s.pool.Close() }

// EnsureSchema creates the retired_players table and its ranking index if
// they do not already exist.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS retired_players (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	score INTEGER NOT NULL,
	play_time DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS retired_players_rank_idx
	ON retired_players (score DESC, play_time ASC, name ASC);
`
	_, err := s.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("leaderboard: ensure schema: %w", err)
	}
	return nil
}

// Add inserts one retirement record.
func (s *Sink) Add(ctx context.Context, name string, score int, playTimeSeconds float64) error {
	const q = `INSERT INTO retired_players (name, score, play_time) VALUES ($1, $2, $3)`
	_, err := s.pool.Exec(ctx, q, name, score, playTimeSeconds)
	if err != nil {
		return fmt.Errorf("leaderboard: add: %w", err)
	}
	return nil
}

// Get returns up to maxItems ranked records starting at offset start,
// ordered by (score DESC, play_time ASC, name ASC) exactly as the
// index above — the same tie-break order the original repository used.
func (s *Sink) Get(ctx context.Context, start, maxItems int) ([]Record, error) {
	const q = `
SELECT name, score, play_time FROM retired_players
ORDER BY score DESC, play_time ASC, name ASC
OFFSET $1 LIMIT $2`
	rows, err := s.pool.Query(ctx, q, start, maxItems)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: get: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Name, &r.Score, &r.PlayTimeSecs); err != nil {
			return nil, fmt.Errorf("leaderboard: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: rows: %w", err)
	}
	return out, nil
}
