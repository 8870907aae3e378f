package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
)

type NotificationRepository interface {
	Append(ctx context.Context, notification *models.Notification) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, accountID, id string) error
}

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Append(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}

	query := `INSERT INTO notifications (id, account_id, type, title, message, amount, transfer_id, read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		notification.ID, notification.AccountID, notification.Type,
		notification.Title, notification.Message, notification.Amount, notification.TransferID,
	).Scan(&notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.Notification, error) {
	query := `SELECT id, account_id, type, title, message, amount, transfer_id, read, created_at
		FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(&n.ID, &n.AccountID, &n.Type, &n.Title, &n.Message,
			&n.Amount, &n.TransferID, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over notifications: %w", err)
	}
	return notifications, nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, accountID, id string) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND account_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after marking notification read: %w", err)
	}
	if rowsAffected == 0 {
		return errors.ErrNotificationNotFound
	}
	return nil
}
