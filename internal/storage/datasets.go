package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

const datasetColumns = `id, name, description, file_path, owner_id, project_id, created_at, updated_at`

// CreateDataset inserts a new dataset and returns it.
func (db *DB) CreateDataset(ctx context.Context, dataset domain.Dataset) (*domain.Dataset, error) {
	row := db.Pool.QueryRow(ctx, `
		INSERT INTO datasets (name, description, file_path, owner_id, project_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+datasetColumns,
		SanitizeUTF8(dataset.Name),
		toText(dataset.Description),
		toText(dataset.FilePath),
		toUUID(dataset.OwnerID),
		toUUID(dataset.ProjectID),
	)

	stored, err := scanDataset(row)
	if err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}

	return stored, nil
}

// GetDataset returns a dataset by ID.
func (db *DB) GetDataset(ctx context.Context, id string) (*domain.Dataset, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+datasetColumns+`
		FROM datasets
		WHERE id = $1
	`, toUUID(id))

	dataset, err := scanDataset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get dataset: %w", err)
	}

	return dataset, nil
}

// ProjectDatasets lists the datasets of a project, newest first.
func (db *DB) ProjectDatasets(ctx context.Context, projectID string) ([]domain.Dataset, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+datasetColumns+`
		FROM datasets
		WHERE project_id = $1
		ORDER BY created_at DESC
	`, toUUID(projectID))
	if err != nil {
		return nil, fmt.Errorf("project datasets: %w", err)
	}
	defer rows.Close()

	var datasets []domain.Dataset

	for rows.Next() {
		dataset, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}

		datasets = append(datasets, *dataset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}

	return datasets, nil
}

// UpdateDataset updates a dataset's mutable fields.
func (db *DB) UpdateDataset(ctx context.Context, dataset domain.Dataset) (*domain.Dataset, error) {
	row := db.Pool.QueryRow(ctx, `
		UPDATE datasets
		SET name = $2, description = $3, file_path = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+datasetColumns,
		toUUID(dataset.ID),
		SanitizeUTF8(dataset.Name),
		toText(dataset.Description),
		toText(dataset.FilePath),
	)

	stored, err := scanDataset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("update dataset: %w", err)
	}

	return stored, nil
}

// DeleteDataset removes a dataset.
func (db *DB) DeleteDataset(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, toUUID(id))
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanDataset(row pgx.Row) (*domain.Dataset, error) {
	var (
		dataset     domain.Dataset
		id          pgtype.UUID
		description pgtype.Text
		filePath    pgtype.Text
		ownerID     pgtype.UUID
		projectID   pgtype.UUID
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(&id, &dataset.Name, &description, &filePath, &ownerID, &projectID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	dataset.ID = fromUUID(id)
	dataset.Description = fromText(description)
	dataset.FilePath = fromText(filePath)
	dataset.OwnerID = fromUUID(ownerID)
	dataset.ProjectID = fromUUID(projectID)
	dataset.CreatedAt = createdAt
	dataset.UpdatedAt = updatedAt

	return &dataset, nil
}
