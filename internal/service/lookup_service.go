package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var digitsOnly = regexp.MustCompile(`^[0-9-]+$`)

// DecodeScannedPayload extracts an email address from scanner output. A QR
// code carries either the raw address or a JSON object with an "email" field;
// anything else is rejected.
func DecodeScannedPayload(data string) (string, error) {
	email := strings.TrimSpace(data)

	var parsed struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal([]byte(data), &parsed); err == nil && parsed.Email != "" {
		email = strings.TrimSpace(parsed.Email)
	}

	email = strings.ToLower(email)
	if !emailPattern.MatchString(email) {
		return "", errors.ErrInvalidScanPayload
	}
	return email, nil
}

type LookupService interface {
	ResolveScan(ctx context.Context, data string) (*models.RecipientSummary, error)
	Search(ctx context.Context, term string) (*models.RecipientSummary, error)
}

type LookupServiceImpl struct {
	accountRepo repository.AccountRepository
	logger      *slog.Logger
}

func NewLookupService(accountRepo repository.AccountRepository, logger *slog.Logger) *LookupServiceImpl {
	return &LookupServiceImpl{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

func (s *LookupServiceImpl) ResolveScan(ctx context.Context, data string) (*models.RecipientSummary, error) {
	email, err := DecodeScannedPayload(data)
	if err != nil {
		s.logger.Warn("rejected scanned payload")
		return nil, err
	}

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return summarize(account), nil
}

// Search finds a payee by exact email, or by national ID when the term is all
// digits (with or without the display dashes).
func (s *LookupServiceImpl) Search(ctx context.Context, term string) (*models.RecipientSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.NewValidationError("q", "must be non-empty")
	}

	var account *models.Account
	var err error
	if digitsOnly.MatchString(term) {
		account, err = s.accountRepo.GetByNationalID(ctx, normalizeNationalID(term))
	} else {
		account, err = s.accountRepo.GetByEmail(ctx, strings.ToLower(term))
	}
	if err != nil {
		return nil, err
	}
	return summarize(account), nil
}

// summarize hides everything lookup must not expose, in particular the
// balance and the password hash.
func summarize(account *models.Account) *models.RecipientSummary {
	return &models.RecipientSummary{
		ID:         account.ID,
		FullName:   account.FullName,
		Email:      account.Email,
		NationalID: account.NationalID,
	}
}
