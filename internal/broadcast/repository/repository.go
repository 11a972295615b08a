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

// Broadcast statuses.
const (
	StatusPending = "pending"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Broadcast represents an announcement email sent to member groups.
type Broadcast struct {
	ID        uuid.UUID  `db:"id"`
	Subject   string     `db:"subject"`
	Body      string     `db:"body"`
	Status    string     `db:"status"`
	CreatedBy *uuid.UUID `db:"created_by"`
	CreatedAt time.Time  `db:"created_at"`
	SentAt    *time.Time `db:"sent_at"`
}

// Delivery is the per-recipient outcome of a broadcast. The recipient email
// is snapshotted at creation time so later profile edits don't change who
// was mailed.
type Delivery struct {
	ID          uuid.UUID  `db:"id"`
	BroadcastID uuid.UUID  `db:"broadcast_id"`
	UserID      uuid.UUID  `db:"user_id"`
	Email       string     `db:"email"`
	Status      string     `db:"status"`
	Error       *string    `db:"error"`
	SentAt      *time.Time `db:"sent_at"`
}

// Recipient is a snapshot target for a new broadcast.
type Recipient struct {
	UserID uuid.UUID
	Email  string
}

// Repository provides database operations for broadcasts.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new broadcast repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the broadcast, its group targets, and the recipient
// snapshot in one transaction.
func (r *Repository) Create(ctx context.Context, subject, body string, createdBy *uuid.UUID, groupIDs []uuid.UUID, recipients []Recipient) (uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	query := `INSERT INTO broadcasts (subject, body, created_by) VALUES ($1, $2, $3) RETURNING id`
	if err := tx.QueryRow(ctx, query, subject, body, createdBy).Scan(&id); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create broadcast: %w", err)
	}

	for _, groupID := range groupIDs {
		group := `INSERT INTO broadcast_groups (broadcast_id, group_id) VALUES ($1, $2)`
		if _, err := tx.Exec(ctx, group, id, groupID); err != nil {
			return uuid.UUID{}, fmt.Errorf("failed to insert broadcast group: %w", err)
		}
	}

	for _, rec := range recipients {
		delivery := `INSERT INTO broadcast_deliveries (broadcast_id, user_id, email)
			VALUES ($1, $2, $3) ON CONFLICT (broadcast_id, user_id) DO NOTHING`
		if _, err := tx.Exec(ctx, delivery, id, rec.UserID, rec.Email); err != nil {
			return uuid.UUID{}, fmt.Errorf("failed to insert broadcast delivery: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to commit broadcast: %w", err)
	}
	return id, nil
}

// GetByID retrieves a broadcast.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Broadcast, error) {
	var b Broadcast
	query := `SELECT id, subject, body, status, created_by, created_at, sent_at FROM broadcasts WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.Subject, &b.Body, &b.Status, &b.CreatedBy, &b.CreatedAt, &b.SentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("broadcast not found")
		}
		return nil, fmt.Errorf("failed to get broadcast: %w", err)
	}
	return &b, nil
}

// List returns broadcasts, newest first.
func (r *Repository) List(ctx context.Context) ([]Broadcast, error) {
	query := `SELECT id, subject, body, status, created_by, created_at, sent_at
		FROM broadcasts ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	defer rows.Close()

	var out []Broadcast
	for rows.Next() {
		var b Broadcast
		if err := rows.Scan(&b.ID, &b.Subject, &b.Body, &b.Status, &b.CreatedBy, &b.CreatedAt, &b.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan broadcast: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListDeliveries returns every delivery row for a broadcast.
func (r *Repository) ListDeliveries(ctx context.Context, broadcastID uuid.UUID) ([]Delivery, error) {
	query := `SELECT id, broadcast_id, user_id, email, status, error, sent_at
		FROM broadcast_deliveries WHERE broadcast_id = $1`
	return r.listDeliveries(ctx, query, broadcastID)
}

// ListPendingDeliveries returns the deliveries still awaiting a send attempt.
func (r *Repository) ListPendingDeliveries(ctx context.Context, broadcastID uuid.UUID) ([]Delivery, error) {
	query := `SELECT id, broadcast_id, user_id, email, status, error, sent_at
		FROM broadcast_deliveries WHERE broadcast_id = $1 AND status = 'pending'`
	return r.listDeliveries(ctx, query, broadcastID)
}

func (r *Repository) listDeliveries(ctx context.Context, query string, broadcastID uuid.UUID) ([]Delivery, error) {
	rows, err := r.pool.Query(ctx, query, broadcastID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.BroadcastID, &d.UserID, &d.Email, &d.Status, &d.Error, &d.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MarkDeliverySent records a successful send.
func (r *Repository) MarkDeliverySent(ctx context.Context, deliveryID uuid.UUID) error {
	query := `UPDATE broadcast_deliveries SET status = 'sent', error = NULL, sent_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, deliveryID); err != nil {
		return fmt.Errorf("failed to mark delivery sent: %w", err)
	}
	return nil
}

// MarkDeliveryFailed records a failed send with its error.
func (r *Repository) MarkDeliveryFailed(ctx context.Context, deliveryID uuid.UUID, sendErr string) error {
	query := `UPDATE broadcast_deliveries SET status = 'failed', error = $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, deliveryID, sendErr); err != nil {
		return fmt.Errorf("failed to mark delivery failed: %w", err)
	}
	return nil
}

// SetStatus updates the broadcast status. sent_at is stamped when the
// broadcast transitions to sent.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE broadcasts SET status = $2, sent_at = CASE WHEN $2 = 'sent' THEN now() ELSE sent_at END WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, status); err != nil {
		return fmt.Errorf("failed to set broadcast status: %w", err)
	}
	return nil
}
