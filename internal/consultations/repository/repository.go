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

// Consultation represents the consultation database model.
type Consultation struct {
	ID          uuid.UUID  `db:"id"`
	Title       string     `db:"title"`
	Description *string    `db:"description"`
	Status      string     `db:"status"`
	DeletedAt   *time.Time `db:"deleted_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// Schedule is a bookable datetime slot belonging to a consultation.
type Schedule struct {
	ID             uuid.UUID `db:"id"`
	ConsultationID uuid.UUID `db:"consultation_id"`
	StartsAt       time.Time `db:"starts_at"`
}

// Question is an intake question belonging to a consultation.
type Question struct {
	ID             uuid.UUID `db:"id"`
	ConsultationID uuid.UUID `db:"consultation_id"`
	QuestionType   string    `db:"question_type"`
	Label          string    `db:"label"`
	Required       bool      `db:"required"`
}

// Booking is a member's reservation of a schedule slot.
type Booking struct {
	ID             uuid.UUID `db:"id"`
	ConsultationID uuid.UUID `db:"consultation_id"`
	ScheduleID     uuid.UUID `db:"schedule_id"`
	UserID         uuid.UUID `db:"user_id"`
	CreatedAt      time.Time `db:"created_at"`
}

const consultationNotFoundMsg = "consultation not found"

// Repository provides database operations for consultations and their children.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new consultations repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new consultation and returns its ID.
func (r *Repository) Create(ctx context.Context, title string, description *string) (uuid.UUID, error) {
	var id uuid.UUID
	query := `INSERT INTO consultations (title, description) VALUES ($1, $2) RETURNING id`
	if err := r.pool.QueryRow(ctx, query, title, description).Scan(&id); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create consultation: %w", err)
	}
	return id, nil
}

// GetByID retrieves an active consultation.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	var cons Consultation
	query := `SELECT id, title, description, status, deleted_at, created_at, updated_at
		FROM consultations WHERE id = $1 AND deleted_at IS NULL`
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&cons.ID, &cons.Title, &cons.Description, &cons.Status,
		&cons.DeletedAt, &cons.CreatedAt, &cons.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(consultationNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return &cons, nil
}

// List returns active consultations, newest first. When openOnly is set only
// consultations with status 'open' are returned.
func (r *Repository) List(ctx context.Context, openOnly bool) ([]Consultation, error) {
	query := `SELECT id, title, description, status, deleted_at, created_at, updated_at
		FROM consultations WHERE deleted_at IS NULL`
	if openOnly {
		query += ` AND status = 'open'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	defer rows.Close()

	var out []Consultation
	for rows.Next() {
		var cons Consultation
		if err := rows.Scan(&cons.ID, &cons.Title, &cons.Description, &cons.Status,
			&cons.DeletedAt, &cons.CreatedAt, &cons.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan consultation: %w", err)
		}
		out = append(out, cons)
	}
	return out, rows.Err()
}

// Update modifies the consultation parent row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title string, description *string, status string) error {
	query := `UPDATE consultations SET title = $2, description = $3, status = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.pool.Exec(ctx, query, id, title, description, status)
	if err != nil {
		return fmt.Errorf("failed to update consultation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(consultationNotFoundMsg)
	}
	return nil
}

// SoftDelete marks the consultation deleted.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE consultations SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete consultation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(consultationNotFoundMsg)
	}
	return nil
}

// ListSchedules returns the active schedule slots for a consultation.
func (r *Repository) ListSchedules(ctx context.Context, consultationID uuid.UUID) ([]Schedule, error) {
	query := `SELECT id, consultation_id, starts_at FROM consultation_schedules
		WHERE consultation_id = $1 AND deleted_at IS NULL ORDER BY starts_at`
	rows, err := r.pool.Query(ctx, query, consultationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(&s.ID, &s.ConsultationID, &s.StartsAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertSchedules adds new schedule slots. Each insert issues a fresh row ID;
// removed slots are never revived.
func (r *Repository) InsertSchedules(ctx context.Context, consultationID uuid.UUID, startTimes []time.Time) error {
	for _, startsAt := range startTimes {
		query := `INSERT INTO consultation_schedules (consultation_id, starts_at) VALUES ($1, $2)`
		if _, err := r.pool.Exec(ctx, query, consultationID, startsAt); err != nil {
			return fmt.Errorf("failed to insert schedule: %w", err)
		}
	}
	return nil
}

// SoftDeleteSchedules marks the given schedule rows deleted. Already-deleted
// rows are unaffected, so re-applying a plan cannot double-delete.
func (r *Repository) SoftDeleteSchedules(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE consultation_schedules SET deleted_at = now()
		WHERE id = ANY($1) AND deleted_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to soft delete schedules: %w", err)
	}
	return nil
}

// ListQuestions returns the active intake questions for a consultation.
func (r *Repository) ListQuestions(ctx context.Context, consultationID uuid.UUID) ([]Question, error) {
	query := `SELECT id, consultation_id, question_type, label, required FROM consultation_questions
		WHERE consultation_id = $1 AND deleted_at IS NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, consultationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.ConsultationID, &q.QuestionType, &q.Label, &q.Required); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// InsertQuestions adds new intake questions.
func (r *Repository) InsertQuestions(ctx context.Context, consultationID uuid.UUID, questions []Question) error {
	for _, q := range questions {
		query := `INSERT INTO consultation_questions (consultation_id, question_type, label, required)
			VALUES ($1, $2, $3, $4)`
		if _, err := r.pool.Exec(ctx, query, consultationID, q.QuestionType, q.Label, q.Required); err != nil {
			return fmt.Errorf("failed to insert question: %w", err)
		}
	}
	return nil
}

// SoftDeleteQuestions marks the given question rows deleted.
func (r *Repository) SoftDeleteQuestions(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE consultation_questions SET deleted_at = now()
		WHERE id = ANY($1) AND deleted_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to soft delete questions: %w", err)
	}
	return nil
}

// GetSchedule returns an active schedule slot.
func (r *Repository) GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*Schedule, error) {
	var s Schedule
	query := `SELECT id, consultation_id, starts_at FROM consultation_schedules
		WHERE id = $1 AND deleted_at IS NULL`
	err := r.pool.QueryRow(ctx, query, scheduleID).Scan(&s.ID, &s.ConsultationID, &s.StartsAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("schedule not found")
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &s, nil
}

// CreateBooking reserves a slot for a member. The unique constraint on
// (consultation_id, user_id) rejects a second booking.
func (r *Repository) CreateBooking(ctx context.Context, consultationID, scheduleID, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	query := `INSERT INTO consultation_bookings (consultation_id, schedule_id, user_id)
		VALUES ($1, $2, $3) RETURNING id`
	if err := r.pool.QueryRow(ctx, query, consultationID, scheduleID, userID).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return uuid.UUID{}, apperr.Conflict("consultation already booked")
		}
		return uuid.UUID{}, fmt.Errorf("failed to create booking: %w", err)
	}
	return id, nil
}

// CancelBooking soft-deletes the member's booking. A missing booking is not
// an error.
func (r *Repository) CancelBooking(ctx context.Context, consultationID, userID uuid.UUID) error {
	query := `UPDATE consultation_bookings SET deleted_at = now()
		WHERE consultation_id = $1 AND user_id = $2 AND deleted_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, consultationID, userID); err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
