package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/parikshasetu/exam-platform/internal/models"
)

// ErrDuplicateEmail is returned when an email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, full_name, role, status, verified, created_at, updated_at`

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. A taken email yields ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users (id, email, password_hash, full_name, role, status, verified, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :full_name, :role, :status, :verified, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if !isUUID(id) {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ExistsByEmail reports whether the email is registered.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email); err != nil {
		return false, fmt.Errorf("check user email: %w", err)
	}
	return exists, nil
}

// List returns users, optionally restricted to one role.
func (r *UserRepository) List(ctx context.Context, role *models.UserRole) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []interface{}
	if role != nil {
		query += ` WHERE role = $1`
		args = append(args, *role)
	}
	query += ` ORDER BY full_name`
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateStatus changes the approval status of a user.
func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus, verified bool) error {
	const query = `UPDATE users SET status = $2, verified = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, verified, time.Now().UTC()); err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountApprovedByRole counts approved users grouped by role.
func (r *UserRepository) CountApprovedByRole(ctx context.Context) (map[models.UserRole]int, error) {
	const query = `SELECT role, COUNT(*) AS total FROM users WHERE status = $1 GROUP BY role`
	var rows []struct {
		Role  models.UserRole `db:"role"`
		Total int             `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, models.UserStatusApproved); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	counts := make(map[models.UserRole]int, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}
