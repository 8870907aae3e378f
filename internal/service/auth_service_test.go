package service

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dot-css/Palm-Pay-App/internal/errors"
	"github.com/dot-css/Palm-Pay-App/internal/models"
	"github.com/dot-css/Palm-Pay-App/internal/repository/memory"
)

type recordingMailer struct {
	email string
	token string
}

func (m *recordingMailer) SendPasswordReset(email, token string) error {
	m.email = email
	m.token = token
	return nil
}

func newAuthFixture() (*memory.Store, *recordingMailer, *AuthServiceImpl) {
	store := memory.NewStore()
	mailer := &recordingMailer{}
	svc := NewAuthService(store, memory.NewSessionRepository(), memory.NewPasswordResetRepository(),
		mailer, time.Hour, time.Hour, bcrypt.MinCost, testLogger())
	return store, mailer, svc
}

func validSignUp() *models.SignUpRequest {
	return &models.SignUpRequest{
		FullName:   "Ayesha Khan",
		Email:      "Ayesha@Example.com",
		NationalID: "12345-1234567-1",
		Password:   "sup3rsecret",
	}
}

func TestSignUp_CreatesZeroBalanceAccount(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newAuthFixture()

	account, err := svc.SignUp(ctx, validSignUp())
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if account.Balance != 0 {
		t.Errorf("new accounts must start at zero balance, got %d", account.Balance)
	}
	if account.Email != "ayesha@example.com" {
		t.Errorf("email not normalised: %q", account.Email)
	}
	if account.NationalID != "1234512345671" {
		t.Errorf("national ID not normalised: %q", account.NationalID)
	}

	stored, err := store.GetByEmail(ctx, "ayesha@example.com")
	if err != nil {
		t.Fatalf("account not persisted: %v", err)
	}
	if stored.PasswordHash == "sup3rsecret" {
		t.Error("password stored in plain text")
	}
}

func TestSignUp_Validation(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newAuthFixture()

	cases := []struct {
		name   string
		mutate func(*models.SignUpRequest)
	}{
		{"empty name", func(r *models.SignUpRequest) { r.FullName = " " }},
		{"bad email", func(r *models.SignUpRequest) { r.Email = "not-an-email" }},
		{"short national id", func(r *models.SignUpRequest) { r.NationalID = "12345" }},
		{"short password", func(r *models.SignUpRequest) { r.Password = "short" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validSignUp()
			tc.mutate(req)
			if _, err := svc.SignUp(ctx, req); !errors.IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newAuthFixture()

	if _, err := svc.SignUp(ctx, validSignUp()); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	if _, err := svc.SignUp(ctx, validSignUp()); !errors.IsAlreadyExists(err) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestSignInAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newAuthFixture()

	created, err := svc.SignUp(ctx, validSignUp())
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	session, account, err := svc.SignIn(ctx, "ayesha@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	if account.ID != created.ID {
		t.Errorf("signin returned wrong account")
	}

	resolved, err := svc.Authenticate(ctx, session.Token)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if resolved.ID != created.ID {
		t.Errorf("authenticate resolved wrong account")
	}

	if err := svc.SignOut(ctx, session.Token); err != nil {
		t.Fatalf("signout failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, session.Token); !errors.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized after signout, got %v", err)
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newAuthFixture()

	if _, err := svc.SignUp(ctx, validSignUp()); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	if _, _, err := svc.SignIn(ctx, "ayesha@example.com", "wrong"); err != errors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := svc.SignIn(ctx, "nobody@example.com", "whatever"); err != errors.ErrInvalidCredentials {
		t.Fatalf("unknown email must look like bad credentials, got %v", err)
	}
}

func TestAuthenticate_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sessions := memory.NewSessionRepository()
	svc := NewAuthService(store, sessions, memory.NewPasswordResetRepository(),
		&recordingMailer{}, time.Hour, time.Hour, bcrypt.MinCost, testLogger())

	account, err := svc.SignUp(ctx, validSignUp())
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	expired := &models.Session{
		Token:     "expired-token",
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := sessions.Create(ctx, expired); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "expired-token"); err != errors.ErrSessionExpired {
		t.Fatalf("expected session expired, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	_, mailer, svc := newAuthFixture()

	if _, err := svc.SignUp(ctx, validSignUp()); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	session, _, err := svc.SignIn(ctx, "ayesha@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, "ayesha@example.com"); err != nil {
		t.Fatalf("reset request failed: %v", err)
	}
	if mailer.token == "" {
		t.Fatal("no reset token delivered")
	}

	if err := svc.ConfirmPasswordReset(ctx, mailer.token, "newpassword1"); err != nil {
		t.Fatalf("reset confirm failed: %v", err)
	}

	// Old password dead, new password works, old session revoked.
	if _, _, err := svc.SignIn(ctx, "ayesha@example.com", "sup3rsecret"); err != errors.ErrInvalidCredentials {
		t.Fatalf("old password should be rejected, got %v", err)
	}
	if _, _, err := svc.SignIn(ctx, "ayesha@example.com", "newpassword1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if _, err := svc.Authenticate(ctx, session.Token); !errors.IsUnauthorized(err) {
		t.Fatalf("old session should be revoked, got %v", err)
	}

	// Token is single use.
	if err := svc.ConfirmPasswordReset(ctx, mailer.token, "anotherpass1"); err != errors.ErrResetTokenInvalid {
		t.Fatalf("reused token should be invalid, got %v", err)
	}
}

func TestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	ctx := context.Background()
	_, mailer, svc := newAuthFixture()

	if err := svc.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("unknown email must not error, got %v", err)
	}
	if mailer.token != "" {
		t.Error("no token should be issued for unknown email")
	}
}
