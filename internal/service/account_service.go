package service

import (
	"context"
	"log/slog"

	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/repository"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type AccountService interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	History(ctx context.Context, accountID string, limit int) ([]*models.TransactionLeg, error)
}

type AccountServiceImpl struct {
	accountRepo     repository.AccountRepository
	transactionRepo repository.TransactionRepository
	logger          *slog.Logger
}

func NewAccountService(accountRepo repository.AccountRepository, transactionRepo repository.TransactionRepository, logger *slog.Logger) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

func (s *AccountServiceImpl) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// History lists an account's transaction legs newest first.
func (s *AccountServiceImpl) History(ctx context.Context, accountID string, limit int) ([]*models.TransactionLeg, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.transactionRepo.ListByAccount(ctx, accountID, limit)
}
