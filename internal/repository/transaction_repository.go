package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dot-css/Palm-Pay-App/internal/models"
)

type TransactionRepository interface {
	AppendLeg(ctx context.Context, leg *models.TransactionLeg) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.TransactionLeg, error)
}

type PostgresTransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

// AppendLeg records one side of a transfer. The table has a unique constraint
// on (account_id, transfer_id, direction), so a retried append for the same
// transfer is a no-op rather than a duplicate history entry.
func (r *PostgresTransactionRepository) AppendLeg(ctx context.Context, leg *models.TransactionLeg) error {
	if leg.ID == "" {
		leg.ID = uuid.New().String()
	}

	query := `INSERT INTO transaction_legs
		(id, account_id, transfer_id, direction, amount, counterparty_id, counterparty_name, counterparty_email, note, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (account_id, transfer_id, direction) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		leg.ID, leg.AccountID, leg.TransferID, string(leg.Direction), leg.Amount,
		leg.CounterpartyID, leg.CounterpartyName, leg.CounterpartyEmail, leg.Note, leg.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction leg: %w", err)
	}
	return nil
}

func (r *PostgresTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.TransactionLeg, error) {
	query := `SELECT id, account_id, transfer_id, direction, amount, counterparty_id, counterparty_name, counterparty_email, note, status, created_at
		FROM transaction_legs
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction legs: %w", err)
	}
	defer rows.Close()

	var legs []*models.TransactionLeg
	for rows.Next() {
		leg := &models.TransactionLeg{}
		var direction string
		err := rows.Scan(&leg.ID, &leg.AccountID, &leg.TransferID, &direction, &leg.Amount,
			&leg.CounterpartyID, &leg.CounterpartyName, &leg.CounterpartyEmail,
			&leg.Note, &leg.Status, &leg.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction leg: %w", err)
		}
		leg.Direction = models.LegDirection(direction)
		legs = append(legs, leg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction legs: %w", err)
	}
	return legs, nil
}
