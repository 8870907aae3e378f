package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/repository"
)

// Store is an in-memory stand-in for the Postgres store, used by unit tests.
// One mutex guards everything, so RunAtomic trivially gets the isolation the
// real store provides with serializable transactions.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*models.Account),
	}
}

type memoryAccountTx struct {
	store  *Store
	staged map[string]int64
}

func (s *Store) RunAtomic(ctx context.Context, fn func(tx repository.AccountTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryAccountTx{store: s, staged: make(map[string]int64)}
	if err := fn(tx); err != nil {
		return err
	}

	// Commit staged writes
	now := time.Now()
	for id, balance := range tx.staged {
		account := s.accounts[id]
		account.Balance = balance
		account.UpdatedAt = now
	}
	return nil
}

func (t *memoryAccountTx) GetAccountForUpdate(ctx context.Context, id string) (*models.Account, error) {
	account, exists := t.store.accounts[id]
	if !exists {
		return nil, errors.ErrAccountNotFound
	}
	copied := *account
	if staged, ok := t.staged[id]; ok {
		copied.Balance = staged
	}
	return &copied, nil
}

func (t *memoryAccountTx) SetBalance(ctx context.Context, id string, balance int64) error {
	if balance < 0 {
		return errors.ErrNegativeBalance
	}
	if _, exists := t.store.accounts[id]; !exists {
		return errors.ErrAccountNotFound
	}
	t.staged[id] = balance
	return nil
}

func (s *Store) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return errors.ErrAccountAlreadyExists
	}
	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return errors.ErrAccountAlreadyExists
		}
	}

	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[id]
	if !exists {
		return nil, errors.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, errors.ErrAccountNotFound
}

func (s *Store) GetByNationalID(ctx context.Context, nationalID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.NationalID == nationalID {
			copied := *account
			return &copied, nil
		}
	}
	return nil, errors.ErrAccountNotFound
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[id]
	if !exists {
		return errors.ErrAccountNotFound
	}
	account.PasswordHash = passwordHash
	account.UpdatedAt = time.Now()
	return nil
}
