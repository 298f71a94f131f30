package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schoolhub/api/internal/models"
)

var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrClassFull          = errors.New("class is full")
)

const enrollmentColumns = `id, class_id, student_id, status, enrolled_at`

type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// CreateIfCapacity inserts an enrollment only while the class still has a
// free seat. The seat check and the insert run as one statement so two
// concurrent enrollments cannot both take the last seat.
func (r *EnrollmentRepository) CreateIfCapacity(ctx context.Context, enrollment models.Enrollment, capacity int) error {
	const query = `
		INSERT INTO enrollments (id, class_id, student_id, status, enrolled_at)
		SELECT $1, $2, $3, $4, NOW()
		WHERE (
			SELECT COUNT(*) FROM enrollments
			WHERE class_id = $2 AND status = 'active'
		) < $5
	`

	cmd, err := r.pool.Exec(ctx, query,
		enrollment.ID, enrollment.ClassID, enrollment.StudentID, enrollment.Status, capacity,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrClassFull
	}
	return nil
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (models.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	return scanEnrollment(r.pool.QueryRow(ctx, query, id))
}

func (r *EnrollmentRepository) FindActive(ctx context.Context, classID, studentID string) (models.Enrollment, error) {
	const query = `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE class_id = $1 AND student_id = $2 AND status = 'active'
	`
	return scanEnrollment(r.pool.QueryRow(ctx, query, classID, studentID))
}

func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET status = $2 WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}

func (r *EnrollmentRepository) ListByClass(ctx context.Context, classID string) ([]models.Enrollment, error) {
	const query = `
		SELECT ` + enrollmentColumns + `
		FROM enrollments WHERE class_id = $1 ORDER BY enrolled_at
	`
	rows, err := r.pool.Query(ctx, query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEnrollments(rows)
}

func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	const query = `
		SELECT ` + enrollmentColumns + `
		FROM enrollments WHERE student_id = $1 ORDER BY enrolled_at
	`
	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEnrollments(rows)
}

func collectEnrollments(rows pgx.Rows) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}
	return enrollments, rows.Err()
}

func scanEnrollment(row pgx.Row) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := row.Scan(
		&enrollment.ID,
		&enrollment.ClassID,
		&enrollment.StudentID,
		&enrollment.Status,
		&enrollment.EnrolledAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Enrollment{}, ErrEnrollmentNotFound
		}
		return models.Enrollment{}, err
	}
	return enrollment, nil
}
