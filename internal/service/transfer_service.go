package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/events"
	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/repository"
	"github.com/dot-css/Palm-Pay-App/pkg/metrics"
)

// MaxNoteLength bounds the free-text note attached to a transfer.
const MaxNoteLength = 100

type TransferResult struct {
	TransferID       string
	Amount           int64
	SenderBalance    int64
	RecipientBalance int64
	CreatedAt        time.Time
}

type TransferService interface {
	Transfer(ctx context.Context, senderID, recipientID string, amount int64, note string) (*TransferResult, error)
}

type TransferServiceImpl struct {
	store            repository.AtomicStore
	transactionRepo  repository.TransactionRepository
	notificationRepo repository.NotificationRepository
	dispatcher       *events.Dispatcher
	metrics          *metrics.Collector
	logger           *slog.Logger
}

func NewTransferService(
	store repository.AtomicStore,
	transactionRepo repository.TransactionRepository,
	notificationRepo repository.NotificationRepository,
	dispatcher *events.Dispatcher,
	collector *metrics.Collector,
	logger *slog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		store:            store,
		transactionRepo:  transactionRepo,
		notificationRepo: notificationRepo,
		dispatcher:       dispatcher,
		metrics:          collector,
		logger:           logger,
	}
}

// Transfer moves amount from sender to recipient. The balance pair is written
// inside one atomic store transaction; the history legs and notifications are
// appended after commit and are best-effort: once the balances commit, the
// operation reports success regardless of what the audit trail does.
func (s *TransferServiceImpl) Transfer(ctx context.Context, senderID, recipientID string, amount int64, note string) (*TransferResult, error) {
	start := time.Now()

	if err := s.validateTransfer(senderID, recipientID, amount, note); err != nil {
		s.metrics.TransferFailed("validation")
		s.logger.Warn("invalid transfer request",
			"sender_id", senderID,
			"recipient_id", recipientID,
			"amount", amount,
			"error", err.Error(),
		)
		return nil, err
	}

	transferID := uuid.New().String()

	var sender, recipient *models.Account
	var newSenderBalance, newRecipientBalance int64

	err := s.store.RunAtomic(ctx, func(tx repository.AccountTx) error {
		var err error

		sender, err = tx.GetAccountForUpdate(ctx, senderID)
		if err != nil {
			if errors.IsNotFound(err) {
				return fmt.Errorf("sender account: %w", err)
			}
			return err
		}

		recipient, err = tx.GetAccountForUpdate(ctx, recipientID)
		if err != nil {
			if errors.IsNotFound(err) {
				return fmt.Errorf("recipient account: %w", err)
			}
			return err
		}

		newSenderBalance = sender.Balance - amount
		newRecipientBalance = recipient.Balance + amount

		if newSenderBalance < 0 {
			return errors.ErrInsufficientBalance
		}

		if err := tx.SetBalance(ctx, senderID, newSenderBalance); err != nil {
			return err
		}
		return tx.SetBalance(ctx, recipientID, newRecipientBalance)
	})
	if err != nil {
		switch {
		case errors.IsNotFound(err):
			s.metrics.TransferFailed("account_not_found")
		case errors.IsInsufficientBalance(err):
			s.metrics.TransferFailed("insufficient_balance")
			s.logger.Warn("insufficient balance for transfer",
				"sender_id", senderID,
				"requested_amount", amount,
			)
		default:
			s.metrics.TransferFailed("store")
			s.logger.Error("transfer transaction failed",
				"sender_id", senderID,
				"recipient_id", recipientID,
				"error", err.Error(),
			)
		}
		return nil, err
	}

	// The transfer is financially complete from here on. Everything below is
	// best-effort bookkeeping and must never turn the result into a failure.
	s.dispatcher.Publish(events.Event{
		Kind:       events.KindBalanceUpdated,
		AccountID:  senderID,
		TransferID: transferID,
		Amount:     newSenderBalance,
	})
	s.dispatcher.Publish(events.Event{
		Kind:       events.KindBalanceUpdated,
		AccountID:  recipientID,
		TransferID: transferID,
		Amount:     newRecipientBalance,
	})

	s.recordTransferLegs(ctx, transferID, sender, recipient, amount, note)
	s.recordTransferNotifications(ctx, transferID, sender, recipient, amount)

	s.metrics.TransferProcessed(amount, time.Since(start).Seconds())
	s.logger.Info("transfer committed",
		"transfer_id", transferID,
		"sender_id", senderID,
		"recipient_id", recipientID,
		"amount", amount,
	)

	return &TransferResult{
		TransferID:       transferID,
		Amount:           amount,
		SenderBalance:    newSenderBalance,
		RecipientBalance: newRecipientBalance,
		CreatedAt:        time.Now(),
	}, nil
}

func (s *TransferServiceImpl) validateTransfer(senderID, recipientID string, amount int64, note string) error {
	if senderID == "" {
		return errors.NewValidationError("sender_id", "must be non-empty")
	}
	if recipientID == "" {
		return errors.NewValidationError("recipient_id", "must be non-empty")
	}
	if senderID == recipientID {
		return errors.ErrSelfTransfer
	}
	if amount <= 0 {
		return errors.ErrInvalidAmount
	}
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return errors.ErrNoteTooLong
	}
	return nil
}

// recordTransferLegs appends the send and receive history entries. Each leg
// is keyed by (account, transfer, direction), so re-running this for the same
// transfer ID cannot create duplicates.
func (s *TransferServiceImpl) recordTransferLegs(ctx context.Context, transferID string, sender, recipient *models.Account, amount int64, note string) {
	senderLeg := &models.TransactionLeg{
		AccountID:         sender.ID,
		TransferID:        transferID,
		Direction:         models.LegSend,
		Amount:            amount,
		CounterpartyID:    recipient.ID,
		CounterpartyName:  recipient.FullName,
		CounterpartyEmail: recipient.Email,
		Note:              note,
		Status:            models.LegStatusCompleted,
	}
	if err := s.transactionRepo.AppendLeg(ctx, senderLeg); err != nil {
		s.logger.Error("failed to append sender transaction leg",
			"transfer_id", transferID,
			"account_id", sender.ID,
			"error", err.Error(),
		)
	} else {
		s.dispatcher.Publish(events.Event{
			Kind:       events.KindTransactionRecorded,
			AccountID:  sender.ID,
			TransferID: transferID,
			Amount:     amount,
		})
	}

	recipientLeg := &models.TransactionLeg{
		AccountID:         recipient.ID,
		TransferID:        transferID,
		Direction:         models.LegReceive,
		Amount:            amount,
		CounterpartyID:    sender.ID,
		CounterpartyName:  sender.FullName,
		CounterpartyEmail: sender.Email,
		Note:              note,
		Status:            models.LegStatusCompleted,
	}
	if err := s.transactionRepo.AppendLeg(ctx, recipientLeg); err != nil {
		s.logger.Error("failed to append recipient transaction leg",
			"transfer_id", transferID,
			"account_id", recipient.ID,
			"error", err.Error(),
		)
	} else {
		s.dispatcher.Publish(events.Event{
			Kind:       events.KindTransactionRecorded,
			AccountID:  recipient.ID,
			TransferID: transferID,
			Amount:     amount,
		})
	}
}

func (s *TransferServiceImpl) recordTransferNotifications(ctx context.Context, transferID string, sender, recipient *models.Account, amount int64) {
	formatted := models.FormatAmount(amount)

	pairs := []*models.Notification{
		{
			AccountID:  sender.ID,
			Type:       models.NotificationTransferSent,
			Title:      "Money Sent",
			Message:    fmt.Sprintf("You sent Rs. %s to %s", formatted, recipient.FullName),
			Amount:     amount,
			TransferID: transferID,
		},
		{
			AccountID:  recipient.ID,
			Type:       models.NotificationTransferReceived,
			Title:      "Money Received",
			Message:    fmt.Sprintf("You received Rs. %s from %s", formatted, sender.FullName),
			Amount:     amount,
			TransferID: transferID,
		},
	}

	for _, notification := range pairs {
		if err := s.notificationRepo.Append(ctx, notification); err != nil {
			s.logger.Error("failed to append notification",
				"transfer_id", transferID,
				"account_id", notification.AccountID,
				"error", err.Error(),
			)
			continue
		}
		s.metrics.NotificationEmitted()
		s.dispatcher.Publish(events.Event{
			Kind:       events.KindNotificationCreated,
			AccountID:  notification.AccountID,
			TransferID: transferID,
			Amount:     amount,
			Title:      notification.Title,
			Message:    notification.Message,
		})
	}
}
