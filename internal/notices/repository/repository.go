package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"member_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notice represents the notice database model.
type Notice struct {
	ID          uuid.UUID  `db:"id"`
	Title       string     `db:"title"`
	Body        string     `db:"body"`
	Pinned      bool       `db:"pinned"`
	Published   bool       `db:"published"`
	PublishedAt *time.Time `db:"published_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

const noticeNotFoundMsg = "notice not found"

// Repository provides database operations for notices.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new notices repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new notice and returns its ID. published_at is set when
// the notice is created already published.
func (r *Repository) Create(ctx context.Context, n Notice) (uuid.UUID, error) {
	var id uuid.UUID
	query := `INSERT INTO notices (title, body, pinned, published, published_at)
		VALUES ($1, $2, $3, $4, CASE WHEN $4 THEN now() END) RETURNING id`
	if err := r.pool.QueryRow(ctx, query, n.Title, n.Body, n.Pinned, n.Published).Scan(&id); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create notice: %w", err)
	}
	return id, nil
}

// GetByID retrieves an active notice.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Notice, error) {
	var n Notice
	query := `SELECT id, title, body, pinned, published, published_at, created_at, updated_at
		FROM notices WHERE id = $1 AND deleted_at IS NULL`
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.Title, &n.Body, &n.Pinned, &n.Published, &n.PublishedAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(noticeNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get notice: %w", err)
	}
	return &n, nil
}

// List returns active notices, pinned first, then newest first. When
// publishedOnly is set drafts are excluded.
func (r *Repository) List(ctx context.Context, publishedOnly bool) ([]Notice, error) {
	query := `SELECT id, title, body, pinned, published, published_at, created_at, updated_at
		FROM notices WHERE deleted_at IS NULL`
	if publishedOnly {
		query += ` AND published`
	}
	query += ` ORDER BY pinned DESC, COALESCE(published_at, created_at) DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list notices: %w", err)
	}
	defer rows.Close()

	var out []Notice
	for rows.Next() {
		var n Notice
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Pinned, &n.Published,
			&n.PublishedAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notice: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Update modifies a notice. published_at is stamped on the first transition
// to published and preserved afterwards.
func (r *Repository) Update(ctx context.Context, n Notice) error {
	query := `UPDATE notices SET title = $2, body = $3, pinned = $4, published = $5,
		published_at = CASE WHEN $5 AND published_at IS NULL THEN now() ELSE published_at END,
		updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.pool.Exec(ctx, query, n.ID, n.Title, n.Body, n.Pinned, n.Published)
	if err != nil {
		return fmt.Errorf("failed to update notice: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(noticeNotFoundMsg)
	}
	return nil
}

// SoftDelete marks the notice deleted.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notices SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete notice: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(noticeNotFoundMsg)
	}
	return nil
}
