package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to connStr and applies pending
// migrations. The caller is responsible for calling Close() on the
// repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	var username string
	var database string
	err = pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %w", err)
	}
	log.Info("Connected to %s as %s", database, username)

	if err := applyPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

func applyPostgresMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations, err := loadMigrations("postgres")
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`, migrationTable)
	if _, err := pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	for _, m := range migrations {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", m.name, err)
		}

		q := fmt.Sprintf("INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", migrationTable)
		tag, err := tx.Exec(ctx, q, m.name)
		if err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %s: %w", m.name, err)
		}
		if tag.RowsAffected() == 0 {
			tx.Rollback(ctx)
			continue
		}

		if _, err := tx.Exec(ctx, m.up); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("failed to execute migration %s: %w", m.name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.name, err)
		}
	}

	return nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) SaveResult(ctx context.Context, summary *types.Summary) error {
	q := `
	INSERT INTO results (session_id, name, map, replay_file, turns, players, winners, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (session_id) DO UPDATE SET
		name = $2, map = $3, replay_file = $4, turns = $5, players = $6, winners = $7, finished_at = $8;
	`
	_, err := r.pool.Exec(ctx, q,
		summary.SessionID,
		summary.Name,
		summary.Map,
		summary.ReplayFile,
		int64(summary.Turns),
		summary.Players,
		summary.Winners,
		summary.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	return nil
}

const postgresSelectResult = `
	SELECT session_id, name, map, replay_file, turns, players, winners, finished_at FROM results
`

func scanPostgresResult(row pgx.Row) (*types.Summary, error) {
	var summary types.Summary
	var turns int64
	if err := row.Scan(
		&summary.SessionID,
		&summary.Name,
		&summary.Map,
		&summary.ReplayFile,
		&turns,
		&summary.Players,
		&summary.Winners,
		&summary.FinishedAt,
	); err != nil {
		return nil, err
	}
	summary.Turns = uint64(turns)
	summary.FinishedAt = summary.FinishedAt.UTC()
	return &summary, nil
}

func (r *PostgresRepository) ListResults(ctx context.Context) ([]types.Summary, error) {
	rows, err := r.pool.Query(ctx, postgresSelectResult+" ORDER BY finished_at DESC, session_id;")
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := make([]types.Summary, 0)
	for rows.Next() {
		summary, err := scanPostgresResult(rows)
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

func (r *PostgresRepository) GetResult(ctx context.Context, sessionID string) (*types.Summary, error) {
	summary, err := scanPostgresResult(r.pool.QueryRow(ctx, postgresSelectResult+" WHERE session_id = $1;", sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan result: %w", err)
	}
	return summary, nil
}
