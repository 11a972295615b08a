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

// User represents the member account database model. Profile attributes
// mirror the external membership system and are all nullable.
type User struct {
	ID             uuid.UUID  `db:"id"`
	AuthIdentityID *uuid.UUID `db:"auth_identity_id"`
	Email          string     `db:"email"`
	LastName       *string    `db:"last_name"`
	FirstName      *string    `db:"first_name"`
	Phone          *string    `db:"phone"`
	PostalCode     *string    `db:"postal_code"`
	Address        *string    `db:"address"`
	DeletedAt      *time.Time `db:"deleted_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Group represents a named member group.
type Group struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Membership represents a (user, group) row; DeletedAt non-nil means
// logically absent. At most one row exists per pair.
type Membership struct {
	ID        uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	GroupID   uuid.UUID  `db:"group_id"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// ProfileFields carries the partial-update attributes for a user. A nil
// field leaves the stored value untouched.
type ProfileFields struct {
	LastName   *string
	FirstName  *string
	Phone      *string
	PostalCode *string
	Address    *string
}

// Recipient is the minimal projection for broadcast targeting.
type Recipient struct {
	UserID uuid.UUID `db:"id"`
	Email  string    `db:"email"`
}

const userNotFoundMsg = "user not found"

// Repository provides database operations for members, groups, and memberships.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new members repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, auth_identity_id, email, last_name, first_name, phone, postal_code, address, deleted_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.AuthIdentityID, &u.Email, &u.LastName, &u.FirstName,
		&u.Phone, &u.PostalCode, &u.Address, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail retrieves an active user by normalized email.
// Returns (nil, nil) when no active user exists.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`
	u, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// GetUserByID retrieves an active user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(userNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListUsers returns all active users, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CreateIdentity inserts an authentication identity and returns its ID.
func (r *Repository) CreateIdentity(ctx context.Context, email, passwordHash string) (uuid.UUID, error) {
	var id uuid.UUID
	query := `INSERT INTO auth_identities (email, password_hash) VALUES ($1, $2) RETURNING id`
	if err := r.pool.QueryRow(ctx, query, email, passwordHash).Scan(&id); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create auth identity: %w", err)
	}
	return id, nil
}

// DeleteIdentity removes an authentication identity. Used as the
// compensating action when the user insert after identity creation fails.
func (r *Repository) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM auth_identities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete auth identity: %w", err)
	}
	return nil
}

// CreateUser inserts a new user row and returns its ID.
func (r *Repository) CreateUser(ctx context.Context, authIdentityID uuid.UUID, email string, fields ProfileFields) (uuid.UUID, error) {
	var id uuid.UUID
	query := `
		INSERT INTO users (auth_identity_id, email, last_name, first_name, phone, postal_code, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		authIdentityID, email, fields.LastName, fields.FirstName,
		fields.Phone, fields.PostalCode, fields.Address,
	).Scan(&id)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// UpdateUserFields applies a partial profile update: nil fields keep the
// stored value.
func (r *Repository) UpdateUserFields(ctx context.Context, id uuid.UUID, fields ProfileFields) error {
	query := `
		UPDATE users SET
			last_name   = COALESCE($2, last_name),
			first_name  = COALESCE($3, first_name),
			phone       = COALESCE($4, phone),
			postal_code = COALESCE($5, postal_code),
			address     = COALESCE($6, address),
			updated_at  = now()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query,
		id, fields.LastName, fields.FirstName, fields.Phone, fields.PostalCode, fields.Address,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(userNotFoundMsg)
	}
	return nil
}

// GetGroupByName retrieves a group by its unique name.
// Returns (nil, nil) when absent; callers decide whether that is fatal.
func (r *Repository) GetGroupByName(ctx context.Context, name string) (*Group, error) {
	var g Group
	query := `SELECT id, name, description, created_at FROM groups WHERE name = $1`
	err := r.pool.QueryRow(ctx, query, name).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &g, nil
}

// ListGroups returns all groups.
func (r *Repository) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// UpsertMembership activates the (user, group) membership. The unique
// constraint on (user_id, group_id) guarantees at most one row per pair:
// a fresh pair inserts, a soft-deleted row is reactivated in place, and an
// already-active row is a no-op update. Safe to call any number of times.
func (r *Repository) UpsertMembership(ctx context.Context, userID, groupID uuid.UUID) error {
	query := `
		INSERT INTO group_members (user_id, group_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, group_id)
		DO UPDATE SET deleted_at = NULL, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, userID, groupID); err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

// SoftDeleteMembership marks the active (user, group) row deleted.
// A missing or already-deleted row is a no-op.
func (r *Repository) SoftDeleteMembership(ctx context.Context, userID, groupID uuid.UUID) error {
	query := `
		UPDATE group_members SET deleted_at = now(), updated_at = now()
		WHERE user_id = $1 AND group_id = $2 AND deleted_at IS NULL`

	if _, err := r.pool.Exec(ctx, query, userID, groupID); err != nil {
		return fmt.Errorf("failed to soft delete membership: %w", err)
	}
	return nil
}

// GetMembership returns the (user, group) row including soft-deleted state,
// or (nil, nil) when no row exists.
func (r *Repository) GetMembership(ctx context.Context, userID, groupID uuid.UUID) (*Membership, error) {
	var m Membership
	query := `SELECT id, user_id, group_id, deleted_at FROM group_members WHERE user_id = $1 AND group_id = $2`
	err := r.pool.QueryRow(ctx, query, userID, groupID).Scan(&m.ID, &m.UserID, &m.GroupID, &m.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// ListGroupIDs returns the active group IDs for a user.
func (r *Repository) ListGroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT group_id FROM group_members WHERE user_id = $1 AND deleted_at IS NULL`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListActiveRecipients returns active users for broadcast targeting. When
// groupIDs is empty, all active users are returned; otherwise only active
// members of the given groups, de-duplicated.
func (r *Repository) ListActiveRecipients(ctx context.Context, groupIDs []uuid.UUID) ([]Recipient, error) {
	var rows pgx.Rows
	var err error
	if len(groupIDs) == 0 {
		rows, err = r.pool.Query(ctx, `SELECT id, email FROM users WHERE deleted_at IS NULL`)
	} else {
		query := `
			SELECT DISTINCT u.id, u.email
			FROM users u
			JOIN group_members gm ON gm.user_id = u.id AND gm.deleted_at IS NULL
			WHERE u.deleted_at IS NULL AND gm.group_id = ANY($1)`
		rows, err = r.pool.Query(ctx, query, groupIDs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.UserID, &rec.Email); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}
