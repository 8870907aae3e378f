package memory

import (
	"github.com/dot-css/Palm-Pay-App/internal/repository"
)

var (
	_ repository.AtomicStore             = (*Store)(nil)
	_ repository.AccountRepository       = (*Store)(nil)
	_ repository.TransactionRepository   = (*TransactionRepository)(nil)
	_ repository.NotificationRepository  = (*NotificationRepository)(nil)
	_ repository.SessionRepository       = (*SessionRepository)(nil)
	_ repository.PasswordResetRepository = (*PasswordResetRepository)(nil)
)
