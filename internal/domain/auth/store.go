package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type User struct {
	ID           string
	Email        string
	EmployeeID   string
	Roles        []string
	PasswordHash string
}

func (s *Store) FindByEmail(ctx context.Context, email string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.email, COALESCE(e.id::text, ''), u.roles, u.password_hash
    FROM users u
    LEFT JOIN employees e ON e.user_id = u.id AND e.deleted_at IS NULL
    WHERE u.email = $1 AND u.status = 'active'
  `, email).Scan(&out.ID, &out.Email, &out.EmployeeID, &out.Roles, &out.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}
