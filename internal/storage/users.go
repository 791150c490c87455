package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

// ErrAlreadyExists is returned when a unique constraint rejects an insert.
var ErrAlreadyExists = errors.New("already exists")

const uniqueViolationCode = "23505"

// CreateUser inserts a new user. Username and email must be unique.
func (db *DB) CreateUser(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	row := db.Pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, email, created_at
	`, SanitizeUTF8(username), SanitizeUTF8(email), toText(passwordHash))

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrAlreadyExists
		}

		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// GetUser returns a user by ID.
func (db *DB) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT id, username, email, created_at
		FROM users
		WHERE id = $1
	`, toUUID(id))

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user      domain.User
		id        pgtype.UUID
		createdAt time.Time
	)

	if err := row.Scan(&id, &user.Username, &user.Email, &createdAt); err != nil {
		return nil, err
	}

	user.ID = fromUUID(id)
	user.CreatedAt = createdAt

	return &user, nil
}
