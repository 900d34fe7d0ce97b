package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cbodonnell/planetwars/pkg/game/types"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path and applies pending
// migrations. Use ":memory:" for a throwaway database.
func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite serializes writers; a single connection also keeps
	// in-memory databases alive across queries
	db.SetMaxOpenConns(1)

	if err := applySQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func applySQLiteMigrations(ctx context.Context, db *sql.DB) error {
	migrations, err := loadMigrations("sqlite")
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	);
	`, migrationTable)
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	for _, m := range migrations {
		var count int
		q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE name = ?", migrationTable)
		if err := db.QueryRowContext(ctx, q, m.name).Scan(&count); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", m.name, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx, m.up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", m.name, err)
		}
		q = fmt.Sprintf("INSERT INTO %s (name, applied_at) VALUES (?, ?)", migrationTable)
		if _, err := tx.ExecContext(ctx, q, m.name, time.Now().UTC().UnixMilli()); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.name, err)
		}
	}

	return nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveResult(ctx context.Context, summary *types.Summary) error {
	players, err := json.Marshal(summary.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}
	winners, err := json.Marshal(summary.Winners)
	if err != nil {
		return fmt.Errorf("failed to marshal winners: %w", err)
	}

	q := `
	INSERT OR REPLACE INTO results (session_id, name, map, replay_file, turns, players, winners, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err = r.db.ExecContext(ctx, q,
		summary.SessionID,
		summary.Name,
		summary.Map,
		summary.ReplayFile,
		summary.Turns,
		string(players),
		string(winners),
		summary.FinishedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	return nil
}

const sqliteSelectResult = `
	SELECT session_id, name, map, replay_file, turns, players, winners, finished_at FROM results
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteResult(row rowScanner) (*types.Summary, error) {
	var summary types.Summary
	var players, winners string
	var finishedAt int64
	if err := row.Scan(
		&summary.SessionID,
		&summary.Name,
		&summary.Map,
		&summary.ReplayFile,
		&summary.Turns,
		&players,
		&winners,
		&finishedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(players), &summary.Players); err != nil {
		return nil, fmt.Errorf("failed to unmarshal players: %w", err)
	}
	if err := json.Unmarshal([]byte(winners), &summary.Winners); err != nil {
		return nil, fmt.Errorf("failed to unmarshal winners: %w", err)
	}
	summary.FinishedAt = time.UnixMilli(finishedAt).UTC()
	return &summary, nil
}

func (r *SQLiteRepository) ListResults(ctx context.Context) ([]types.Summary, error) {
	rows, err := r.db.QueryContext(ctx, sqliteSelectResult+" ORDER BY finished_at DESC, session_id;")
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := make([]types.Summary, 0)
	for rows.Next() {
		summary, err := scanSQLiteResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, *summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	return results, nil
}

func (r *SQLiteRepository) GetResult(ctx context.Context, sessionID string) (*types.Summary, error) {
	row := r.db.QueryRowContext(ctx, sqliteSelectResult+" WHERE session_id = ?;", sessionID)
	summary, err := scanSQLiteResult(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan result: %w", err)
	}
	return summary, nil
}
