package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
)

type NotificationRepository struct {
	mu            sync.Mutex
	notifications map[string][]*models.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		notifications: make(map[string][]*models.Notification),
	}
}

func (r *NotificationRepository) Append(ctx context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	notification.CreatedAt = time.Now()

	copied := *notification
	r.notifications[notification.AccountID] = append(r.notifications[notification.AccountID], &copied)
	return nil
}

func (r *NotificationRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.notifications[accountID]
	var result []*models.Notification
	for i := len(stored) - 1; i >= 0 && len(result) < limit; i-- {
		copied := *stored[i]
		result = append(result, &copied)
	}
	return result, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, accountID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications[accountID] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return errors.ErrNotificationNotFound
}
