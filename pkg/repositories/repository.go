package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/cbodonnell/planetwars/pkg/game/types"
)

// Repository stores the summaries of finished games.
type Repository interface {
	Close(ctx context.Context) error
	// SaveResult inserts or replaces the summary of a session.
	SaveResult(ctx context.Context, summary *types.Summary) error
	// ListResults returns every stored summary, most recent first.
	ListResults(ctx context.Context) ([]types.Summary, error)
	// GetResult returns the summary of a session or an ErrNotFound.
	GetResult(ctx context.Context, sessionID string) (*types.Summary, error)
}

// NewRepository opens the repository named by url. postgres:// and
// postgresql:// select Postgres, sqlite:// a SQLite file. A bare path is
// treated as a SQLite file.
func NewRepository(ctx context.Context, url string) (Repository, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresRepository(ctx, url)
	case strings.HasPrefix(url, "sqlite://"):
		return NewSQLiteRepository(ctx, strings.TrimPrefix(url, "sqlite://"))
	case url == "":
		return nil, fmt.Errorf("no database url configured")
	default:
		return NewSQLiteRepository(ctx, url)
	}
}
