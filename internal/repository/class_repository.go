package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schoolhub/api/internal/models"
)

var ErrClassNotFound = errors.New("class not found")

const classColumns = `id, name, subject, location_id, teacher_id, capacity, monthly_fee_cents, created_at, updated_at`

type ClassRepository struct {
	pool *pgxpool.Pool
}

func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

func (r *ClassRepository) Create(ctx context.Context, class models.Class) error {
	const query = `
		INSERT INTO classes (id, name, subject, location_id, teacher_id, capacity, monthly_fee_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		class.ID, class.Name, class.Subject, class.LocationID, class.TeacherID, class.Capacity, class.MonthlyFeeCents,
	)
	return err
}

func (r *ClassRepository) GetByID(ctx context.Context, id string) (models.Class, error) {
	const query = `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	return scanClass(r.pool.QueryRow(ctx, query, id))
}

func (r *ClassRepository) List(ctx context.Context) ([]models.Class, error) {
	const query = `SELECT ` + classColumns + ` FROM classes ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClasses(rows)
}

func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	const query = `SELECT ` + classColumns + ` FROM classes WHERE teacher_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClasses(rows)
}

func (r *ClassRepository) Update(ctx context.Context, class models.Class) error {
	const query = `
		UPDATE classes
		SET name = $2, subject = $3, location_id = $4, teacher_id = $5, capacity = $6, monthly_fee_cents = $7, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		class.ID, class.Name, class.Subject, class.LocationID, class.TeacherID, class.Capacity, class.MonthlyFeeCents,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrClassNotFound
	}
	return nil
}

func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM classes WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrClassNotFound
	}
	return nil
}

func collectClasses(rows pgx.Rows) ([]models.Class, error) {
	var classes []models.Class
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	return classes, rows.Err()
}

func scanClass(row pgx.Row) (models.Class, error) {
	var class models.Class
	if err := row.Scan(
		&class.ID,
		&class.Name,
		&class.Subject,
		&class.LocationID,
		&class.TeacherID,
		&class.Capacity,
		&class.MonthlyFeeCents,
		&class.CreatedAt,
		&class.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Class{}, ErrClassNotFound
		}
		return models.Class{}, err
	}
	return class, nil
}
