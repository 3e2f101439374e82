package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/blog-security-service/internal/domain"
)

// UserDirectory is the read-only view of accounts the security coordinators
// consult for privilege level and verified-contact status.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs the pgx-backed directory.
func NewUserRepository(pool *pgxpool.Pool) UserDirectory {
	return &userRepository{pool: pool}
}

// ErrUserNotFound re-exports the driver's absent-row sentinel so callers do
// not depend on pgx directly.
var ErrUserNotFound = pgx.ErrNoRows

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, username, email, email_verified, role, status, created_at, updated_at
        FROM users WHERE id=$1`
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.EmailVerified,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
