package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByAccount(ctx context.Context, accountID string) error
}

type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	// Redeem returns the reset entry and deletes it, so a token can only be
	// used once.
	Redeem(ctx context.Context, token string) (*models.PasswordReset, error)
}

type PostgresSessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `INSERT INTO sessions (token, account_id, created_at, expires_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP, $3)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, session.Token, session.AccountID, session.ExpiresAt).
		Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `SELECT token, account_id, created_at, expires_at FROM sessions WHERE token = $1`

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&session.Token, &session.AccountID, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete sessions for account: %w", err)
	}
	return nil
}

type PostgresPasswordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) *PostgresPasswordResetRepository {
	return &PostgresPasswordResetRepository{db: db}
}

func (r *PostgresPasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	query := `INSERT INTO password_resets (token, account_id, created_at, expires_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP, $3)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, reset.Token, reset.AccountID, reset.ExpiresAt).
		Scan(&reset.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

func (r *PostgresPasswordResetRepository) Redeem(ctx context.Context, token string) (*models.PasswordReset, error) {
	query := `DELETE FROM password_resets WHERE token = $1
		RETURNING token, account_id, created_at, expires_at`

	reset := &models.PasswordReset{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&reset.Token, &reset.AccountID, &reset.CreatedAt, &reset.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("failed to redeem password reset: %w", err)
	}
	return reset, nil
}
