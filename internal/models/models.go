package models

import (
	"time"
)

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	NationalID   string    `json:"national_id"`
	PasswordHash string    `json:"-"`
	Balance      int64     `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type LegDirection string

const (
	LegSend    LegDirection = "send"
	LegReceive LegDirection = "receive"
)

const LegStatusCompleted = "completed"

// TransactionLeg is one account's view of a transfer. Two legs share a
// transfer ID; the pair (account, transfer, direction) is unique, which is
// what makes a retried append a no-op.
type TransactionLeg struct {
	ID                string       `json:"id"`
	AccountID         string       `json:"account_id"`
	TransferID        string       `json:"transfer_id"`
	Direction         LegDirection `json:"direction"`
	Amount            int64        `json:"amount"`
	CounterpartyID    string       `json:"counterparty_id"`
	CounterpartyName  string       `json:"counterparty_name"`
	CounterpartyEmail string       `json:"counterparty_email"`
	Note              string       `json:"note"`
	Status            string       `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
}

const (
	NotificationTransferSent     = "transfer_sent"
	NotificationTransferReceived = "transfer_received"
)

type Notification struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Amount     int64     `json:"amount"`
	TransferID string    `json:"transfer_id"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

type Session struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PasswordReset struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SignUpRequest struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	NationalID string `json:"national_id"`
	Password   string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   AccountResponse `json:"account"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type AccountResponse struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	NationalID string `json:"national_id"`
	Balance    string `json:"balance"`
}

func NewAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:         a.ID,
		FullName:   a.FullName,
		Email:      a.Email,
		NationalID: a.NationalID,
		Balance:    FormatAmount(a.Balance),
	}
}

// RecipientSummary is what payee lookup exposes about another account. It
// never carries a balance or credentials.
type RecipientSummary struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	NationalID string `json:"national_id"`
}

type CreateTransferRequest struct {
	RecipientID string `json:"recipient_id"`
	Amount      string `json:"amount"`
	Note        string `json:"note"`
}

type TransferResponse struct {
	TransferID       string    `json:"transfer_id"`
	RecipientID      string    `json:"recipient_id"`
	Amount           string    `json:"amount"`
	SenderBalance    string    `json:"sender_balance"`
	RecipientBalance string    `json:"recipient_balance"`
	CreatedAt        time.Time `json:"created_at"`
}

type ScanRequest struct {
	Data string `json:"data"`
}

type TransactionLegResponse struct {
	ID                string    `json:"id"`
	TransferID        string    `json:"transfer_id"`
	Direction         string    `json:"direction"`
	Amount            string    `json:"amount"`
	CounterpartyID    string    `json:"counterparty_id"`
	CounterpartyName  string    `json:"counterparty_name"`
	CounterpartyEmail string    `json:"counterparty_email"`
	Note              string    `json:"note"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewTransactionLegResponse(leg *TransactionLeg) TransactionLegResponse {
	return TransactionLegResponse{
		ID:                leg.ID,
		TransferID:        leg.TransferID,
		Direction:         string(leg.Direction),
		Amount:            FormatAmount(leg.Amount),
		CounterpartyID:    leg.CounterpartyID,
		CounterpartyName:  leg.CounterpartyName,
		CounterpartyEmail: leg.CounterpartyEmail,
		Note:              leg.Note,
		Status:            leg.Status,
		CreatedAt:         leg.CreatedAt,
	}
}

type NotificationResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Amount     string    `json:"amount"`
	TransferID string    `json:"transfer_id"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewNotificationResponse(n *Notification) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID,
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		Amount:     FormatAmount(n.Amount),
		TransferID: n.TransferID,
		Read:       n.Read,
		CreatedAt:  n.CreatedAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
