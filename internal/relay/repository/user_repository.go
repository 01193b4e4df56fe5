package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserRepository definition user lookups the relay needs. Account management
// itself lives in another service.
type UserRepository interface {
	GetUsername(ctx context.Context, userID string) (string, error)
}

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository create a UserRepository
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetUsername(ctx context.Context, userID string) (string, error) {
	row := r.db.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, userID)

	var username string
	if err := row.Scan(&username); err != nil {
		if err == pgx.ErrNoRows {
			return "", errors.New("user not found")
		}
		return "", err
	}
	return username, nil
}
