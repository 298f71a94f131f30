package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schoolhub/api/internal/models"
)

var (
	ErrFeeBalanceNotFound = errors.New("fee balance not found")
	ErrPaymentExceedsDue  = errors.New("payment exceeds outstanding balance")
)

type FeeRepository struct {
	pool *pgxpool.Pool
}

func NewFeeRepository(pool *pgxpool.Pool) *FeeRepository {
	return &FeeRepository{pool: pool}
}

func (r *FeeRepository) GetByEnrollment(ctx context.Context, enrollmentID string) (models.FeeBalance, error) {
	const query = `
		SELECT enrollment_id, due_cents, paid_cents, updated_at
		FROM fee_balances WHERE enrollment_id = $1
	`
	var fee models.FeeBalance
	err := r.pool.QueryRow(ctx, query, enrollmentID).Scan(
		&fee.EnrollmentID, &fee.DueCents, &fee.PaidCents, &fee.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.FeeBalance{}, ErrFeeBalanceNotFound
		}
		return models.FeeBalance{}, err
	}
	return fee, nil
}

// AddCharge increases the amount due, creating the balance row on first use.
func (r *FeeRepository) AddCharge(ctx context.Context, enrollmentID string, amountCents int64) error {
	const query = `
		INSERT INTO fee_balances (enrollment_id, due_cents, paid_cents, updated_at)
		VALUES ($1, $2, 0, NOW())
		ON CONFLICT (enrollment_id)
		DO UPDATE SET due_cents = fee_balances.due_cents + EXCLUDED.due_cents, updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, enrollmentID, amountCents)
	return err
}

// AddPayment records a payment. The guard in the WHERE clause keeps paid
// from passing due even under concurrent payments against one balance.
func (r *FeeRepository) AddPayment(ctx context.Context, enrollmentID string, amountCents int64) error {
	const query = `
		UPDATE fee_balances
		SET paid_cents = paid_cents + $2, updated_at = NOW()
		WHERE enrollment_id = $1 AND paid_cents + $2 <= due_cents
	`
	cmd, err := r.pool.Exec(ctx, query, enrollmentID, amountCents)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, getErr := r.GetByEnrollment(ctx, enrollmentID); errors.Is(getErr, ErrFeeBalanceNotFound) {
			return ErrFeeBalanceNotFound
		}
		return ErrPaymentExceedsDue
	}
	return nil
}
