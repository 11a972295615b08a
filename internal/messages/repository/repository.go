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

// Sender roles on a message.
const (
	RoleMember = "member"
	RoleStaff  = "staff"
)

// Thread represents a support conversation between a member and staff.
type Thread struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Subject   string    `db:"subject"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// UnreadCount is the number of unread messages from the counterparty,
	// populated by the list queries.
	UnreadCount int `db:"unread_count"`
}

// Message is a single post within a thread.
type Message struct {
	ID         uuid.UUID  `db:"id"`
	ThreadID   uuid.UUID  `db:"thread_id"`
	SenderRole string     `db:"sender_role"`
	SenderID   *uuid.UUID `db:"sender_id"`
	Body       string     `db:"body"`
	ReadAt     *time.Time `db:"read_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

const threadNotFoundMsg = "thread not found"

// Repository provides database operations for message threads.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new messages repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateThread inserts a new thread and returns its ID.
func (r *Repository) CreateThread(ctx context.Context, userID uuid.UUID, subject string) (uuid.UUID, error) {
	var id uuid.UUID
	query := `INSERT INTO message_threads (user_id, subject) VALUES ($1, $2) RETURNING id`
	if err := r.pool.QueryRow(ctx, query, userID, subject).Scan(&id); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create thread: %w", err)
	}
	return id, nil
}

// GetThread retrieves an active thread.
func (r *Repository) GetThread(ctx context.Context, id uuid.UUID) (*Thread, error) {
	var t Thread
	query := `SELECT id, user_id, subject, created_at, updated_at
		FROM message_threads WHERE id = $1 AND deleted_at IS NULL`
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.UserID, &t.Subject, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(threadNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return &t, nil
}

// ListThreadsByUser returns the member's threads, most recently active first,
// with the count of unread staff messages.
func (r *Repository) ListThreadsByUser(ctx context.Context, userID uuid.UUID) ([]Thread, error) {
	query := `SELECT t.id, t.user_id, t.subject, t.created_at, t.updated_at,
		(SELECT COUNT(*) FROM messages m WHERE m.thread_id = t.id AND m.sender_role = $2 AND m.read_at IS NULL)
		FROM message_threads t
		WHERE t.user_id = $1 AND t.deleted_at IS NULL
		ORDER BY t.updated_at DESC`
	return r.listThreads(ctx, query, userID, RoleStaff)
}

// ListAllThreads returns every thread for the admin inbox, most recently
// active first, with the count of unread member messages.
func (r *Repository) ListAllThreads(ctx context.Context) ([]Thread, error) {
	query := `SELECT t.id, t.user_id, t.subject, t.created_at, t.updated_at,
		(SELECT COUNT(*) FROM messages m WHERE m.thread_id = t.id AND m.sender_role = $1 AND m.read_at IS NULL)
		FROM message_threads t
		WHERE t.deleted_at IS NULL
		ORDER BY t.updated_at DESC`
	return r.listThreads(ctx, query, RoleMember)
}

func (r *Repository) listThreads(ctx context.Context, query string, args ...any) ([]Thread, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var out []Thread
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.UserID, &t.Subject, &t.CreatedAt, &t.UpdatedAt, &t.UnreadCount); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertMessage adds a post to a thread and bumps the thread's updated_at.
func (r *Repository) InsertMessage(ctx context.Context, threadID uuid.UUID, senderRole string, senderID *uuid.UUID, body string) (uuid.UUID, error) {
	var id uuid.UUID
	query := `INSERT INTO messages (thread_id, sender_role, sender_id, body) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.pool.QueryRow(ctx, query, threadID, senderRole, senderID, body).Scan(&id); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to insert message: %w", err)
	}

	bump := `UPDATE message_threads SET updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, bump, threadID); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to bump thread: %w", err)
	}
	return id, nil
}

// ListMessages returns the thread's messages, oldest first.
func (r *Repository) ListMessages(ctx context.Context, threadID uuid.UUID) ([]Message, error) {
	query := `SELECT id, thread_id, sender_role, sender_id, body, read_at, created_at
		FROM messages WHERE thread_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderRole, &m.SenderID, &m.Body, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead stamps read_at on the thread's unread messages from the given
// sender role.
func (r *Repository) MarkRead(ctx context.Context, threadID uuid.UUID, senderRole string) error {
	query := `UPDATE messages SET read_at = now()
		WHERE thread_id = $1 AND sender_role = $2 AND read_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, threadID, senderRole); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}
