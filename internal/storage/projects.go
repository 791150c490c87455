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

const foreignKeyViolationCode = "23503"

// CreateProject inserts a new project and returns it.
func (db *DB) CreateProject(ctx context.Context, name, description string) (*domain.Project, error) {
	row := db.Pool.QueryRow(ctx, `
		INSERT INTO projects (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at, updated_at
	`, SanitizeUTF8(name), toText(description))

	project, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	return project, nil
}

// GetProject returns a project by ID.
func (db *DB) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, toUUID(id))

	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get project: %w", err)
	}

	return project, nil
}

// ListProjects returns all projects, newest first.
func (db *DB) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM projects
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project

	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}

		projects = append(projects, *project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// UpdateProject updates a project's name and description.
func (db *DB) UpdateProject(ctx context.Context, id, name, description string) (*domain.Project, error) {
	row := db.Pool.QueryRow(ctx, `
		UPDATE projects
		SET name = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, created_at, updated_at
	`, toUUID(id), SanitizeUTF8(name), toText(description))

	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("update project: %w", err)
	}

	return project, nil
}

// DeleteProject removes a project and its memberships.
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, toUUID(id))
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AddProjectUser adds a user to a project. Adding twice is a no-op;
// an unknown project or user returns ErrNotFound.
func (db *DB) AddProjectUser(ctx context.Context, projectID, userID string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO project_users (project_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, toUUID(projectID), toUUID(userID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			return ErrNotFound
		}

		return fmt.Errorf("add project user: %w", err)
	}

	return nil
}

// RemoveProjectUser removes a user from a project.
func (db *DB) RemoveProjectUser(ctx context.Context, projectID, userID string) error {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM project_users
		WHERE project_id = $1 AND user_id = $2
	`, toUUID(projectID), toUUID(userID))
	if err != nil {
		return fmt.Errorf("remove project user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ProjectUsers lists the members of a project.
func (db *DB) ProjectUsers(ctx context.Context, projectID string) ([]domain.User, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT u.id, u.username, u.email, u.created_at
		FROM users u
		JOIN project_users pu ON pu.user_id = u.id
		WHERE pu.project_id = $1
		ORDER BY u.username
	`, toUUID(projectID))
	if err != nil {
		return nil, fmt.Errorf("project users: %w", err)
	}
	defer rows.Close()

	var users []domain.User

	for rows.Next() {
		var (
			user domain.User
			id   pgtype.UUID
		)

		if err := rows.Scan(&id, &user.Username, &user.Email, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project user: %w", err)
		}

		user.ID = fromUUID(id)
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project users: %w", err)
	}

	return users, nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		project     domain.Project
		id          pgtype.UUID
		description pgtype.Text
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(&id, &project.Name, &description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	project.ID = fromUUID(id)
	project.Description = fromText(description)
	project.CreatedAt = createdAt
	project.UpdatedAt = updatedAt

	return &project, nil
}
