package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dot-css/Palm-Pay-App/internal/models"
)

type TransactionRepository struct {
	mu   sync.Mutex
	legs map[string][]*models.TransactionLeg
	seen map[string]struct{}
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		legs: make(map[string][]*models.TransactionLeg),
		seen: make(map[string]struct{}),
	}
}

func legKey(leg *models.TransactionLeg) string {
	return leg.AccountID + "|" + leg.TransferID + "|" + string(leg.Direction)
}

func (r *TransactionRepository) AppendLeg(ctx context.Context, leg *models.TransactionLeg) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := legKey(leg)
	if _, seen := r.seen[key]; seen {
		return nil
	}
	if leg.ID == "" {
		leg.ID = uuid.New().String()
	}
	leg.CreatedAt = time.Now()

	copied := *leg
	r.seen[key] = struct{}{}
	r.legs[leg.AccountID] = append(r.legs[leg.AccountID], &copied)
	return nil
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.TransactionLeg, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.legs[accountID]
	var result []*models.TransactionLeg
	for i := len(stored) - 1; i >= 0 && len(result) < limit; i-- {
		copied := *stored[i]
		result = append(result, &copied)
	}
	return result, nil
}
