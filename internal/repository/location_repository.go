package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schoolhub/api/internal/models"
)

var ErrLocationNotFound = errors.New("location not found")

type LocationRepository struct {
	pool *pgxpool.Pool
}

func NewLocationRepository(pool *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{pool: pool}
}

func (r *LocationRepository) Create(ctx context.Context, loc models.Location) error {
	const query = `
		INSERT INTO locations (id, name, address, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query, loc.ID, loc.Name, loc.Address, loc.Timezone)
	return err
}

func (r *LocationRepository) GetByID(ctx context.Context, id string) (models.Location, error) {
	const query = `
		SELECT id, name, address, timezone, created_at, updated_at
		FROM locations WHERE id = $1
	`
	var loc models.Location
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&loc.ID, &loc.Name, &loc.Address, &loc.Timezone, &loc.CreatedAt, &loc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Location{}, ErrLocationNotFound
		}
		return models.Location{}, err
	}
	return loc, nil
}

func (r *LocationRepository) List(ctx context.Context) ([]models.Location, error) {
	const query = `
		SELECT id, name, address, timezone, created_at, updated_at
		FROM locations ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Address, &loc.Timezone, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func (r *LocationRepository) Update(ctx context.Context, loc models.Location) error {
	const query = `
		UPDATE locations SET name = $2, address = $3, timezone = $4, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, loc.ID, loc.Name, loc.Address, loc.Timezone)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLocationNotFound
	}
	return nil
}

func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM locations WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLocationNotFound
	}
	return nil
}
