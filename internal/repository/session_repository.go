package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schoolhub/api/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, session models.Session) error {
	const query = `
		INSERT INTO user_sessions (
			id, user_id, refresh_token_hash, issued_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5
		)
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.RefreshTokenHash,
		session.IssuedAt,
		session.ExpiresAt,
	)
	return err
}

// Consume deletes the session row matching the presented refresh token and
// reports whether it existed. The delete is the rotation's single-use
// guarantee: two concurrent refreshes presenting the same token race on one
// row, and only the caller whose DELETE removes it proceeds. No app-level
// locking is needed on top of this.
func (r *SessionRepository) Consume(ctx context.Context, userID string, refreshHash []byte) error {
	const query = `
		DELETE FROM user_sessions
		WHERE user_id = $1 AND refresh_token_hash = $2 AND expires_at > NOW()
	`
	cmd, err := r.pool.Exec(ctx, query, userID, refreshHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteByHash removes one session if present. Absence is not an error so
// logout stays idempotent.
func (r *SessionRepository) DeleteByHash(ctx context.Context, userID string, refreshHash []byte) error {
	const query = `DELETE FROM user_sessions WHERE user_id = $1 AND refresh_token_hash = $2`
	_, err := r.pool.Exec(ctx, query, userID, refreshHash)
	return err
}

func (r *SessionRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM user_sessions WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

// DeleteExpired purges session rows past their expiry. Run by the nightly
// cleanup job; returns the number of rows removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM user_sessions WHERE expires_at <= NOW()`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	const query = `
		SELECT id, user_id, refresh_token_hash, issued_at, expires_at
		FROM user_sessions
		WHERE user_id = $1
		ORDER BY issued_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (models.Session, error) {
	var session models.Session
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshTokenHash,
		&session.IssuedAt,
		&session.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}
