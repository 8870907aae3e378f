package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
)

type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*models.Session)}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session.CreatedAt = time.Now()
	copied := *session
	r.sessions[session.Token] = &copied
	return nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[token]
	if !exists {
		return nil, errors.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, token)
	return nil
}

func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, session := range r.sessions {
		if session.AccountID == accountID {
			delete(r.sessions, token)
		}
	}
	return nil
}

type PasswordResetRepository struct {
	mu     sync.Mutex
	resets map[string]*models.PasswordReset
}

func NewPasswordResetRepository() *PasswordResetRepository {
	return &PasswordResetRepository{resets: make(map[string]*models.PasswordReset)}
}

func (r *PasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reset.CreatedAt = time.Now()
	copied := *reset
	r.resets[reset.Token] = &copied
	return nil
}

func (r *PasswordResetRepository) Redeem(ctx context.Context, token string) (*models.PasswordReset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reset, exists := r.resets[token]
	if !exists {
		return nil, errors.ErrResetTokenInvalid
	}
	delete(r.resets, token)
	copied := *reset
	return &copied, nil
}
