package repository

import (
	"context"
	"database/sql"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
)

// AccountTx is the view of account state available inside one atomic
// transaction. Reads lock the row; writes become visible only on commit.
type AccountTx interface {
	GetAccountForUpdate(ctx context.Context, id string) (*models.Account, error)
	SetBalance(ctx context.Context, id string, balance int64) error
}

// AtomicStore is the store's transaction primitive: fn either commits in full
// or leaves no trace. Any error returned by fn aborts the transaction.
type AtomicStore interface {
	RunAtomic(ctx context.Context, fn func(tx AccountTx) error) error
}

type PostgresStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// RunAtomic runs fn inside a SERIALIZABLE transaction. Commit and begin
// failures are wrapped as TransactionError so callers can tell a transient
// store failure from a precondition failure raised by fn itself.
func (s *PostgresStore) RunAtomic(ctx context.Context, fn func(tx AccountTx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return errors.NewTransactionError("begin", err)
	}

	// Ensure rollback on error
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	if err := fn(&postgresAccountTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewTransactionError("commit", err)
	}

	// Nullify tx to avoid rollback in defer
	tx = nil
	return nil
}

type postgresAccountTx struct {
	tx *sql.Tx
}

func (t *postgresAccountTx) GetAccountForUpdate(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id, email, full_name, national_id, password_hash, balance, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE`

	account := &models.Account{}
	err := t.tx.QueryRowContext(ctx, query, id).
		Scan(&account.ID, &account.Email, &account.FullName, &account.NationalID,
			&account.PasswordHash, &account.Balance, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		return nil, errors.NewTransactionError("get account for update", err)
	}
	return account, nil
}

func (t *postgresAccountTx) SetBalance(ctx context.Context, id string, balance int64) error {
	if balance < 0 {
		return errors.ErrNegativeBalance
	}

	query := `UPDATE accounts SET balance = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := t.tx.ExecContext(ctx, query, balance, id)
	if err != nil {
		return errors.NewTransactionError("set balance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewTransactionError("set balance rows affected", err)
	}
	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}
	return nil
}
