package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/repository"
)

const nationalIDDigits = 13

// Mailer delivers password-reset tokens out of band.
type Mailer interface {
	SendPasswordReset(email, token string) error
}

// LogMailer stands in for a real mail provider and writes the reset token to
// the log instead.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendPasswordReset(email, token string) error {
	m.Logger.Info("password reset issued", "email", email, "token", token)
	return nil
}

type AuthService interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.Account, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, *models.Account, error)
	SignOut(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.Account, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

type AuthServiceImpl struct {
	accountRepo repository.AccountRepository
	sessionRepo repository.SessionRepository
	resetRepo   repository.PasswordResetRepository
	mailer      Mailer
	sessionTTL  time.Duration
	resetTTL    time.Duration
	bcryptCost  int
	logger      *slog.Logger
}

func NewAuthService(
	accountRepo repository.AccountRepository,
	sessionRepo repository.SessionRepository,
	resetRepo repository.PasswordResetRepository,
	mailer Mailer,
	sessionTTL, resetTTL time.Duration,
	bcryptCost int,
	logger *slog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		resetRepo:   resetRepo,
		mailer:      mailer,
		sessionTTL:  sessionTTL,
		resetTTL:    resetTTL,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// SignUp creates the account with a zero balance; funds only ever arrive
// through transfers.
func (s *AuthServiceImpl) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.Account, error) {
	if err := validateSignUp(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		NationalID:   normalizeNationalID(req.NationalID),
		PasswordHash: string(hash),
		Balance:      0,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.IsAlreadyExists(err) {
			s.logger.Warn("signup rejected, account exists", "email", account.Email)
		}
		return nil, err
	}

	s.logger.Info("account created", "account_id", account.ID, "email", account.Email)
	return account, nil
}

func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password string) (*models.Session, *models.Account, error) {
	account, err := s.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil, errors.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, nil, errors.ErrInvalidCredentials
	}

	session := &models.Session{
		Token:     uuid.New().String(),
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, nil, err
	}

	s.logger.Info("session created", "account_id", account.ID)
	return session, account, nil
}

func (s *AuthServiceImpl) SignOut(ctx context.Context, token string) error {
	return s.sessionRepo.Delete(ctx, token)
}

// Authenticate resolves a bearer token to the calling account.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	session, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		if err := s.sessionRepo.Delete(ctx, token); err != nil {
			s.logger.Error("failed to delete expired session", "error", err.Error())
		}
		return nil, errors.ErrSessionExpired
	}

	return s.accountRepo.GetByID(ctx, session.AccountID)
}

// RequestPasswordReset issues a single-use token. An unknown email is not an
// error to the caller, so the endpoint cannot be used to probe for accounts.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	reset := &models.PasswordReset{
		Token:     uuid.New().String(),
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resetRepo.Create(ctx, reset); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(account.Email, reset.Token); err != nil {
		s.logger.Error("failed to send password reset", "account_id", account.ID, "error", err.Error())
		return err
	}
	return nil
}

// ConfirmPasswordReset rotates the password hash and revokes every live
// session for the account.
func (s *AuthServiceImpl) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.NewValidationError("new_password", "must be at least 8 characters")
	}

	reset, err := s.resetRepo.Redeem(ctx, token)
	if err != nil {
		return err
	}
	if time.Now().After(reset.ExpiresAt) {
		return errors.ErrResetTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.accountRepo.UpdatePasswordHash(ctx, reset.AccountID, string(hash)); err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteByAccount(ctx, reset.AccountID); err != nil {
		s.logger.Error("failed to revoke sessions after password reset",
			"account_id", reset.AccountID,
			"error", err.Error(),
		)
	}

	s.logger.Info("password reset completed", "account_id", reset.AccountID)
	return nil
}

func validateSignUp(req *models.SignUpRequest) error {
	if strings.TrimSpace(req.FullName) == "" {
		return errors.NewValidationError("full_name", "must be non-empty")
	}
	if !emailPattern.MatchString(strings.ToLower(strings.TrimSpace(req.Email))) {
		return errors.NewValidationError("email", "must be a valid email address")
	}
	if len(normalizeNationalID(req.NationalID)) != nationalIDDigits {
		return errors.NewValidationError("national_id", "must contain exactly 13 digits")
	}
	if len(req.Password) < 8 {
		return errors.NewValidationError("password", "must be at least 8 characters")
	}
	return nil
}

// normalizeNationalID strips the dashes of the formatted xxxxx-xxxxxxx-x form
// down to bare digits.
func normalizeNationalID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
