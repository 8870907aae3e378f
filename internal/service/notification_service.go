package service

import (
	"context"
	"log/slog"

	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/repository"
)

type NotificationService interface {
	List(ctx context.Context, accountID string, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, accountID, id string) error
}

type NotificationServiceImpl struct {
	notificationRepo repository.NotificationRepository
	logger           *slog.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, logger *slog.Logger) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (s *NotificationServiceImpl) List(ctx context.Context, accountID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.notificationRepo.ListByAccount(ctx, accountID, limit)
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, accountID, id string) error {
	return s.notificationRepo.MarkRead(ctx, accountID, id)
}
