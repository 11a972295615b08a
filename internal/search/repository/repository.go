package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entity types returned in search results.
const (
	TypeEvent        = "event"
	TypeNotice       = "notice"
	TypeConsultation = "consultation"
)

// Result is a single search hit.
type Result struct {
	ID        uuid.UUID
	Type      string
	Title     string
	Preview   string
	CreatedAt time.Time
}

// Repository provides cross-entity text search queries.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new search repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SearchEvents matches published events by title and body.
func (r *Repository) SearchEvents(ctx context.Context, pattern string, limit int) ([]Result, error) {
	query := `SELECT id, title, COALESCE(LEFT(body, 160), ''), created_at
		FROM events
		WHERE deleted_at IS NULL AND published
		  AND (title ILIKE $1 OR body ILIKE $1)
		ORDER BY created_at DESC LIMIT $2`
	return r.search(ctx, TypeEvent, query, pattern, limit)
}

// SearchNotices matches published notices by title and body.
func (r *Repository) SearchNotices(ctx context.Context, pattern string, limit int) ([]Result, error) {
	query := `SELECT id, title, LEFT(body, 160), created_at
		FROM notices
		WHERE deleted_at IS NULL AND published
		  AND (title ILIKE $1 OR body ILIKE $1)
		ORDER BY created_at DESC LIMIT $2`
	return r.search(ctx, TypeNotice, query, pattern, limit)
}

// SearchConsultations matches open consultations by title and description.
func (r *Repository) SearchConsultations(ctx context.Context, pattern string, limit int) ([]Result, error) {
	query := `SELECT id, title, COALESCE(LEFT(description, 160), ''), created_at
		FROM consultations
		WHERE deleted_at IS NULL AND status = 'open'
		  AND (title ILIKE $1 OR description ILIKE $1)
		ORDER BY created_at DESC LIMIT $2`
	return r.search(ctx, TypeConsultation, query, pattern, limit)
}

func (r *Repository) search(ctx context.Context, entityType, query, pattern string, limit int) ([]Result, error) {
	rows, err := r.pool.Query(ctx, query, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search %ss: %w", entityType, err)
	}
	defer rows.Close()
	return scanResults(rows, entityType)
}

func scanResults(rows pgx.Rows, entityType string) ([]Result, error) {
	var out []Result
	for rows.Next() {
		var res Result
		if err := rows.Scan(&res.ID, &res.Title, &res.Preview, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		res.Type = entityType
		out = append(out, res)
	}
	return out, rows.Err()
}
